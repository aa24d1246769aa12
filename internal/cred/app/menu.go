package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Run migrates any legacy records and then serves the interactive console
// menu until the user exits or stdin closes.
func (app *Application) Run(ctx context.Context) error {
	migrated, err := app.MigrateLegacy(ctx)
	if err != nil {
		return fmt.Errorf("legacy migration: %w", err)
	}
	if migrated > 0 {
		fmt.Printf("Migrated %d user(s) from %s\n", migrated, app.cfg.LegacyUsersFile)
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		printMenu()

		choice, err := readLine(reader, "Select an option (1-3): ")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			app.registerFlow(ctx, reader)
		case "2":
			app.loginFlow(ctx, reader)
		case "3":
			fmt.Println("Bye.")
			return nil
		default:
			fmt.Println("Invalid option, pick 1, 2 or 3.")
		}
	}
}

func printMenu() {
	fmt.Println()
	fmt.Println("credstore")
	fmt.Println("  [1] Register a new user")
	fmt.Println("  [2] Login")
	fmt.Println("  [3] Exit")
}

func (app *Application) registerFlow(ctx context.Context, reader *bufio.Reader) {
	username, err := readLine(reader, "Username: ")
	if err != nil {
		return
	}

	password, err := readPassword(reader, "Password: ")
	if err != nil {
		fmt.Println("Could not read password:", err)
		return
	}
	confirm, err := readPassword(reader, "Confirm password: ")
	if err != nil {
		fmt.Println("Could not read password:", err)
		return
	}
	if password != confirm {
		fmt.Println("Passwords do not match.")
		return
	}

	if err := app.Register(ctx, username, password); err != nil {
		fmt.Println("Registration failed:", Describe(err))
		return
	}
	fmt.Printf("User %q registered.\n", username)
}

func (app *Application) loginFlow(ctx context.Context, reader *bufio.Reader) {
	username, err := readLine(reader, "Username: ")
	if err != nil {
		return
	}
	password, err := readPassword(reader, "Password: ")
	if err != nil {
		fmt.Println("Could not read password:", err)
		return
	}

	if err := app.Login(ctx, username, password); err != nil {
		fmt.Println("Login failed:", Describe(err))
		return
	}
	fmt.Printf("Welcome, %s!\n", username)
}

func readLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo when stdin is a terminal, and falls
// back to plain line reading from the shared reader otherwise (pipes,
// tests) so no buffered input is lost.
func readPassword(reader *bufio.Reader, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(reader, prompt)
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
