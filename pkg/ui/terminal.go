package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// ASCIILogo is printed at the top of interactive commands
const ASCIILogo = `
 ██╗    ██╗██╗████████╗███████╗██████╗  ██████╗ ████████╗
 ██║    ██║██║╚══██╔══╝██╔════╝██╔══██╗██╔═══██╗╚══██╔══╝
 ██║ █╗ ██║██║   ██║   ███████╗██████╔╝██║   ██║   ██║
 ██║███╗██║██║   ██║   ╚════██║██╔══██╗██║   ██║   ██║
 ╚███╔███╔╝██║   ██║   ███████║██████╔╝╚██████╔╝   ██║
  ╚══╝╚══╝ ╚═╝   ╚═╝   ╚══════╝╚═════╝  ╚═════╝    ╚═╝
          trade portal query & download runner
`

var (
	quiet atomic.Bool
	out   io.Writer = os.Stdout
)

// SetQuietMode suppresses decorative console output
func SetQuietMode(q bool) {
	quiet.Store(q)
}

// IsQuietMode reports whether decorative output is suppressed
func IsQuietMode() bool {
	return quiet.Load()
}

// SetOutput redirects console output; used by tests
func SetOutput(w io.Writer) {
	out = w
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(out, logoStyle.Render(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintln(out, Magenta(msg))
}
