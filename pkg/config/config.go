package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the portal bot
type Config struct {
	// Which workflows run
	Workflow WorkflowConfig `yaml:"workflow" json:"workflow"`

	// Saved portal queries to execute, one name or a list
	QueryNames QueryNames `yaml:"query_name" json:"query_name"`

	// Reporter countries, ISO3 code -> display name as shown by the portal
	ISO3ToCountry map[string]string `yaml:"iso3_to_country" json:"iso3_to_country"`

	// Portal login
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	URLs URLConfig `yaml:"urls" json:"urls"`

	Browser BrowserConfig `yaml:"browser_settings" json:"browser_settings"`

	Output OutputConfig `yaml:"output" json:"output"`

	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	Download DownloadConfig `yaml:"download" json:"download"`

	Ordering OrderingConfig `yaml:"ordering" json:"ordering"`

	Session SessionConfig `yaml:"session" json:"session"`

	Supervisor SupervisorConfig `yaml:"supervisor" json:"supervisor"`

	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WorkflowConfig toggles the two workflows
type WorkflowConfig struct {
	ExecuteQuery  bool `yaml:"execute_query" json:"execute_query"`
	DownloadQuery bool `yaml:"download_query" json:"download_query"`
}

// QueryNames accepts either a single YAML string or a list of strings
type QueryNames []string

// UnmarshalYAML implements yaml.Unmarshaler
func (q *QueryNames) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		single = strings.TrimSpace(single)
		if single == "" {
			*q = nil
			return nil
		}
		*q = QueryNames{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		out := make(QueryNames, 0, len(list))
		for _, name := range list {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		*q = out
		return nil
	default:
		return fmt.Errorf("query_name must be a string or a list of strings (line %d)", node.Line)
	}
}

// CredentialsConfig holds the portal account
type CredentialsConfig struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
}

// URLConfig holds portal endpoints
type URLConfig struct {
	Login string `yaml:"login" json:"login"`
	Base  string `yaml:"base" json:"base"`
}

// BrowserConfig holds browser launch settings
type BrowserConfig struct {
	Headless bool          `yaml:"headless" json:"headless"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	SlowMo   time.Duration `yaml:"slow_mo" json:"slow_mo"`
}

// OutputConfig holds the checkpoint and download root
type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

// PacingConfig holds pacing per workflow
type PacingConfig struct {
	Query    CooldownConfig `yaml:"query" json:"query"`
	Download CooldownConfig `yaml:"download" json:"download"`
}

// CooldownConfig is a short delay after every success with a long cooldown every N successes
type CooldownConfig struct {
	Short time.Duration `yaml:"short" json:"short"`
	Long  time.Duration `yaml:"long" json:"long"`
	Every int           `yaml:"every" json:"every"`
}

// DownloadConfig holds result download settings
type DownloadConfig struct {
	MaxPagesPerRun    int  `yaml:"max_pages_per_run" json:"max_pages_per_run"`
	MaxTargetAttempts int  `yaml:"max_target_attempts" json:"max_target_attempts"`
	PagerMaxAttempts  int  `yaml:"pager_max_attempts" json:"pager_max_attempts"`
	SaveFiles         bool `yaml:"save_files" json:"save_files"`
}

// OrderingConfig holds the randomisation knobs, deterministic by default
type OrderingConfig struct {
	ShuffleQueries   bool `yaml:"shuffle_queries" json:"shuffle_queries"`
	ShuffleCountries bool `yaml:"shuffle_countries" json:"shuffle_countries"`
}

// SessionConfig holds session recovery settings
type SessionConfig struct {
	RestartAttempts int `yaml:"restart_attempts" json:"restart_attempts"`
}

// SupervisorConfig holds the restart loop settings
type SupervisorConfig struct {
	Interval time.Duration `yaml:"interval" json:"interval"`
	Grace    time.Duration `yaml:"grace" json:"grace"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Portal defaults
const (
	DefaultLoginURL = "https://wits.worldbank.org/WITS/WITS/Restricted/Login.aspx"
	DefaultBaseURL  = "https://wits.worldbank.org"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workflow: WorkflowConfig{
			ExecuteQuery:  false,
			DownloadQuery: false,
		},
		ISO3ToCountry: map[string]string{},
		URLs: URLConfig{
			Login: DefaultLoginURL,
			Base:  DefaultBaseURL,
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  30 * time.Second,
		},
		Output: OutputConfig{
			Directory: "./output",
		},
		Pacing: PacingConfig{
			Query: CooldownConfig{
				Short: 10 * time.Second,
				Long:  70 * time.Second,
				Every: 3,
			},
			Download: CooldownConfig{
				Short: 2 * time.Second,
				Long:  30 * time.Second,
				Every: 10,
			},
		},
		Download: DownloadConfig{
			MaxPagesPerRun:    0,
			MaxTargetAttempts: 3,
			PagerMaxAttempts:  20,
			SaveFiles:         false,
		},
		Session: SessionConfig{
			RestartAttempts: 3,
		},
		Supervisor: SupervisorConfig{
			Interval: 30 * time.Minute,
			Grace:    5 * time.Second,
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "logs/witsbot.log",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if email := os.Getenv("WITSBOT_EMAIL"); email != "" {
		c.Credentials.Email = email
	}
	if password := os.Getenv("WITSBOT_PASSWORD"); password != "" {
		c.Credentials.Password = password
	}
	if loginURL := os.Getenv("WITSBOT_LOGIN_URL"); loginURL != "" {
		c.URLs.Login = loginURL
	}
	if outputDir := os.Getenv("WITSBOT_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if queries := os.Getenv("WITSBOT_QUERY_NAME"); queries != "" {
		c.QueryNames = splitList(queries)
	}
	if headless := os.Getenv("WITSBOT_HEADLESS"); headless != "" {
		val, err := strconv.ParseBool(headless)
		if err != nil {
			errs = append(errs, fmt.Errorf("WITSBOT_HEADLESS: %w", err))
		} else {
			c.Browser.Headless = val
		}
	}
	if maxPages := os.Getenv("WITSBOT_MAX_PAGES_PER_RUN"); maxPages != "" {
		val, err := strconv.Atoi(maxPages)
		if err != nil {
			errs = append(errs, fmt.Errorf("WITSBOT_MAX_PAGES_PER_RUN: %w", err))
		} else {
			c.Download.MaxPagesPerRun = val
		}
	}
	if notifEnabled := os.Getenv("WITSBOT_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}
	if logLevel := os.Getenv("WITSBOT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile, ok := os.LookupEnv("WITSBOT_LOG_FILE"); ok {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		"config.yaml",
		"config.yml",
		"witsbot.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "witsbot", "config.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Workflow.ExecuteQuery {
		if len(c.QueryNames) == 0 {
			errs = append(errs, errors.New("query_name is required when workflow.execute_query is enabled"))
		}
		if len(c.ISO3ToCountry) == 0 {
			errs = append(errs, errors.New("iso3_to_country must list at least one country when workflow.execute_query is enabled"))
		}
	}
	for code, name := range c.ISO3ToCountry {
		if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("iso3_to_country has an empty entry (%q: %q)", code, name))
		}
	}

	if c.URLs.Login == "" {
		errs = append(errs, errors.New("urls.login is required"))
	}
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Browser.Timeout <= 0 {
		errs = append(errs, errors.New("browser timeout must be positive"))
	}

	for name, p := range map[string]CooldownConfig{"query": c.Pacing.Query, "download": c.Pacing.Download} {
		if p.Short < 0 || p.Long < 0 {
			errs = append(errs, fmt.Errorf("pacing.%s delays cannot be negative", name))
		}
		if p.Every < 0 {
			errs = append(errs, fmt.Errorf("pacing.%s.every cannot be negative", name))
		}
	}

	if c.Download.MaxPagesPerRun < 0 {
		errs = append(errs, errors.New("download.max_pages_per_run cannot be negative"))
	}
	if c.Download.MaxTargetAttempts <= 0 {
		errs = append(errs, errors.New("download.max_target_attempts must be positive"))
	}
	if c.Download.PagerMaxAttempts <= 0 {
		errs = append(errs, errors.New("download.pager_max_attempts must be positive"))
	}
	if c.Session.RestartAttempts <= 0 {
		errs = append(errs, errors.New("session.restart_attempts must be positive"))
	}
	if c.Supervisor.Interval <= 0 {
		errs = append(errs, errors.New("supervisor interval must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// HasCredentials reports whether both email and password are set
func (c *Config) HasCredentials() bool {
	return c.Credentials.Email != "" && c.Credentials.Password != ""
}

// CountryCodes returns the configured ISO3 codes in ascending order
func (c *Config) CountryCodes() []string {
	codes := make([]string, 0, len(c.ISO3ToCountry))
	for code := range c.ISO3ToCountry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["execute-query"].(bool); ok {
		c.Workflow.ExecuteQuery = v
	}
	if v, ok := flags["download-query"].(bool); ok {
		c.Workflow.DownloadQuery = v
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages >= 0 {
		c.Download.MaxPagesPerRun = maxPages
	}
	if queries, ok := flags["query-name"].([]string); ok && len(queries) > 0 {
		c.QueryNames = queries
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".witsbot.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
