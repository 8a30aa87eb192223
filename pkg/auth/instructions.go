package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowAppPasswordGuide explains how to create a Bluesky app password
func ShowAppPasswordGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "BLUESKY APP PASSWORD")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "This tool signs in with an app password, not your account password.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Open https://bsky.app and sign in")
	fmt.Fprintln(w, "STEP 2: Go to Settings > Privacy and security > App passwords")
	fmt.Fprintln(w, "STEP 3: Click 'Add App Password' and give it a name, e.g. bskyscraper")
	fmt.Fprintln(w, "STEP 4: Copy the generated password. It looks like xxxx-xxxx-xxxx-xxxx")
	fmt.Fprintln(w, "        and is shown only once.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Your identifier is your handle (alice.bsky.social), your DID or your")
	fmt.Fprintln(w, "account email. Accounts on another PDS also need --host.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "App passwords can be revoked at any time from the same settings page.")
	fmt.Fprintln(w, "Stored credentials are kept in the system keyring or an encrypted file.")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// ShowQuickGuide is the one-line reminder shown before the prompts
func ShowQuickGuide(w io.Writer) {
	fmt.Fprintln(w, "Settings > Privacy and security > App passwords > Add App Password")
	fmt.Fprintln(w, "Type 'help' at the identifier prompt for detailed instructions")
}
