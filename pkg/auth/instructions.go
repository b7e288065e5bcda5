package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowCredentialHelp explains the ways to give the bot a portal login
func ShowCredentialHelp(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "PORTAL CREDENTIALS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The bot logs in to the trade portal with an email and password.")
	fmt.Fprintln(w, "They are looked up in this order; the first match wins:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  1. Environment:   %s and %s (a .env file in the working\n", EnvEmail, EnvPassword)
	fmt.Fprintln(w, "                     directory is loaded automatically)")
	fmt.Fprintln(w, "  2. Config file:   credentials.email and credentials.password")
	fmt.Fprintln(w, "  3. Saved account: witsbot auth login")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Saved accounts go to the system keyring when one is available, otherwise")
	fmt.Fprintf(w, "to an encrypted file in the user config directory. Set %s to\n", EnvPassphrase)
	fmt.Fprintln(w, "choose the passphrase for that file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Keep passwords out of config files that are committed to version control.")
	fmt.Fprintln(w, rule)
}
