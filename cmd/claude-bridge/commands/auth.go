package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/clsync/claude-bridge/internal/app"
	"github.com/clsync/claude-bridge/internal/claudeweb"
	"github.com/clsync/claude-bridge/internal/session"
)

// authCommand returns the 'auth' subcommand for managing the stored
// Claude.ai session.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the stored Claude.ai session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Store a Claude.ai session key and verify it",
				Action: authLoginAction,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: authLogoutAction,
			},
		},
	}
}

// authLoginAction prompts for the session key, stores it with the default
// expiry, and verifies it by listing organizations, selecting the first one
// as active.
func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	store, err := app.NewStore(cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}

	key, err := readSecureInput(ctx, "Enter your Claude.ai session key: ")
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("session key cannot be empty")
	}

	creds := &session.Credentials{
		SessionKey: key,
		ExpiresAt:  time.Now().Add(session.DefaultExpiry),
	}
	if err := store.SetCredentials(ctx, creds); err != nil {
		return fmt.Errorf("failed to store session key: %w", err)
	}

	provider := claudeweb.New(cfg.Provider.BaseURL, session.KeySource{Store: store})
	orgs, err := provider.ListOrganizations(ctx)
	if err != nil {
		return fmt.Errorf("session key verification failed: %w", err)
	}
	if len(orgs) == 0 {
		return fmt.Errorf("session key verification failed: no organizations")
	}

	settings, err := store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	settings.ActiveOrganizationID = orgs[0].ID
	if err := store.SetSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Login Successful ===")
	fmt.Printf("Active organization: %s\n", orgs[0].Name)

	return nil
}

// authLogoutAction clears the stored credentials.
func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	store, err := app.NewStore(cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}

	if err := store.SetCredentials(ctx, nil); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Logout Successful ===")

	return nil
}

// readSecureInput reads user input with hidden display and context
// cancellation support. Goroutine+select pattern required because
// term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
