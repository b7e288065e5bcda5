package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"witsbot/pkg/auth"
	"witsbot/pkg/config"
	"witsbot/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage witsbot configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (WITSBOT_*), including a .env file
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as 'config.yaml' in the current directory unless a
different path is given with --config.`,
	Run: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The portal password
is masked.`,
	Run: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# witsbot configuration
#
# Every value can be overridden with a WITSBOT_* environment variable,
# for example WITSBOT_EMAIL, WITSBOT_PASSWORD or WITSBOT_OUTPUT_DIR.

workflow:
  # Submit each saved query once per reporter country
  execute_query: true
  # Download every result listed on the results page
  download_query: false

# Saved query name, or a list of names
query_name:
  - "HS6 imports 2019"

# Reporter countries: ISO3 code -> name as the portal spells it
iso3_to_country:
  AUS: "Australia"
  DEU: "Germany"
  FRA: "France"

# Portal login. Prefer 'witsbot auth login' over writing the password here.
credentials:
  email: ""
  password: ""

browser_settings:
  headless: true
  timeout: 30s
  slow_mo: 0s

output:
  # Checkpoint files and downloaded results
  directory: "./output"

pacing:
  query:
    short: 10s
    long: 70s
    every: 3
  download:
    short: 2s
    long: 30s
    every: 10

download:
  # 0 walks every page
  max_pages_per_run: 0
  max_target_attempts: 3
  pager_max_attempts: 20
  # Capture the file the portal serves for each result
  save_files: false

ordering:
  shuffle_queries: false
  shuffle_countries: false

session:
  restart_attempts: 3

supervisor:
  interval: 30m
  grace: 5s

notifications:
  enabled: false

logging:
  level: "info"
  file: "logs/witsbot.log"
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "config.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create configuration directory", err.Error())
			os.Exit(1)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the query names and countries")
	fmt.Println("2. Store your portal login with 'witsbot auth login'")
	fmt.Println("3. Run 'witsbot config validate' to check the configuration")
	fmt.Println("4. Start with 'witsbot run'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	display := *cfg
	display.Credentials.Password = auth.MaskSecret(display.Credentials.Password)

	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (WITSBOT_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (searched in default locations)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings []string
	if !cfg.HasCredentials() {
		warnings = append(warnings, "portal credentials not in config; 'witsbot auth login' or WITSBOT_EMAIL/WITSBOT_PASSWORD will be used")
	}
	if !cfg.Workflow.ExecuteQuery && !cfg.Workflow.DownloadQuery {
		warnings = append(warnings, "no workflow enabled")
	}
	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		ui.PrintError("Cannot create output directory", err.Error())
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Query workflow: %t (%d queries, %d countries)\n", cfg.Workflow.ExecuteQuery, len(cfg.QueryNames), len(cfg.ISO3ToCountry))
	fmt.Printf("  Download workflow: %t\n", cfg.Workflow.DownloadQuery)
	fmt.Printf("  Output directory: %s\n", cfg.Output.Directory)
	fmt.Printf("  Headless: %t\n", cfg.Browser.Headless)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
