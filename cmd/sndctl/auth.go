package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate through Steam",
	Long: `Authenticate through Steam.

The Steam login flow needs a browser: open the printed URL (or scan the
QR code), complete the login, then paste the session cookie value back
here. The credential is verified and stored encrypted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Login")
		if err != nil {
			return err
		}
		defer a.Close()

		loginURL := a.Client.SteamLoginURL()
		fmt.Printf("Open this URL in a browser to sign in:\n\n  %s\n\n", loginURL)
		printTerminalQR(loginURL)

		cookie, err := readSecret("Session cookie value: ")
		if err != nil {
			return fmt.Errorf("reading cookie: %w", err)
		}
		cookie = strings.TrimSpace(cookie)
		if cookie == "" {
			return fmt.Errorf("no cookie provided")
		}

		a.Client.SetSessionCookie(cookie)
		user, err := a.Client.Me(cmd.Context())
		if err != nil {
			return fmt.Errorf("verifying session: %w", err)
		}
		if user == nil {
			return fmt.Errorf("the session cookie is not authenticated")
		}

		if err := a.Sessions.Save(cookie); err != nil {
			return fmt.Errorf("storing session: %w", err)
		}

		fmt.Printf("Logged in as %s\n", user.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Client.Logout(cmd.Context()); err != nil {
			// The server-side session may already be gone; still drop
			// the local credential.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		if err := a.Sessions.Delete(); err != nil {
			return err
		}

		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("WhoAmI")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Client.Me(cmd.Context())
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("Not logged in.")
			return nil
		}

		admin := ""
		if user.IsAdmin {
			admin = "  [admin]"
		}
		fmt.Printf("%s (steam %s)%s\n", user.Username, user.SteamID64, admin)
		return nil
	},
}

// printTerminalQR renders a QR code of the value as terminal blocks.
func printTerminalQR(value string) {
	qr, err := qrcode.New(value, qrcode.Medium)
	if err != nil {
		return
	}
	fmt.Println(qr.ToSmallString(false))
}

// readSecret reads a line from stdin, without echo when stdin is a
// terminal.
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
