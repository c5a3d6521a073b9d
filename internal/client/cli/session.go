package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iudanet/escrutinio/internal/client/auth"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	token := fs.String("token", "", "access token issued by the identity service")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	c.io.Println("=== Login ===")
	c.io.Println()

	if *token == "" {
		t, err := c.io.ReadInput("Access token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		*token = t
	}

	pin, err := c.readPIN()
	if err != nil {
		return err
	}

	authData, err := c.session.Login(ctx, strings.TrimSpace(*token), pin)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("User: %s (%s)\n", authData.Username, authData.Role)
	if authData.ExpiresAt > 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(authData.ExpiresAt, 0).Format(time.RFC3339))
	}
	c.io.Println("The token is stored sealed with your PIN.")
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.session.Logout(ctx); err != nil {
		if errors.Is(err, auth.ErrNotLoggedIn) {
			c.io.Println("Not logged in.")
			return nil
		}
		return err
	}

	c.io.Println("✓ Logged out. Buffered events and queued actions are kept.")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Device Status ===")
	c.io.Println()

	deviceID, err := c.meta.GetDeviceID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device id: %w", err)
	}
	c.io.Printf("Device: %s\n", deviceID)

	authData, err := c.session.Current(ctx)
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		c.io.Println("Session: not authenticated")
	case err != nil:
		return fmt.Errorf("failed to get session: %w", err)
	default:
		c.io.Printf("Session: %s (%s)\n", authData.Username, authData.Role)
		if authData.ExpiresAt > 0 {
			expiresAt := time.Unix(authData.ExpiresAt, 0)
			if remaining := time.Until(expiresAt); remaining > 0 {
				c.io.Printf("Token expires in: %s\n", remaining.Round(time.Second))
			} else {
				c.io.Println("⚠️  Token has expired. Please login again.")
			}
		}
	}

	buffered, err := c.recorder.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to read event buffer: %w", err)
	}
	pending, err := c.queue.PendingItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}
	rejected, err := c.queue.Rejected(ctx)
	if err != nil {
		return fmt.Errorf("failed to read rejected actions: %w", err)
	}

	c.io.Println()
	c.io.Printf("Buffered events: %d\n", len(buffered))
	c.io.Printf("Queued actions:  %d\n", pending)
	c.io.Printf("Rejected:        %d\n", len(rejected))

	if ts, err := c.meta.GetLastSyncTimestamp(ctx); err == nil && ts > 0 {
		c.io.Printf("Last delivery:   %s\n", time.Unix(ts, 0).Format(time.RFC3339))
	}

	if _, err := c.api.Health(ctx); err != nil {
		c.io.Println("Server:          offline")
	} else {
		c.io.Println("Server:          online")
	}

	if len(buffered) > 0 || pending > 0 {
		c.io.Println()
		c.io.Println("Run 'escrutinio sync' to deliver pending changes.")
	}
	return nil
}
