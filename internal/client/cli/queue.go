package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/escrutinio/internal/client/queue"
	"github.com/iudanet/escrutinio/internal/models"
)

func (c *Cli) runPending(ctx context.Context) error {
	actions, err := c.queue.Pending(ctx)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		c.io.Println("Queue is empty.")
		return nil
	}

	c.io.Printf("%d queued action(s):\n", len(actions))
	for _, a := range actions {
		c.printAction(a)
	}
	if next := c.queue.NextAttempt(); time.Now().Before(next) {
		c.io.Printf("Next attempt after %s\n", next.Format(time.RFC3339))
	}
	return nil
}

func (c *Cli) runRejected(ctx context.Context) error {
	actions, err := c.queue.Rejected(ctx)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		c.io.Println("No rejected actions.")
		return nil
	}

	c.io.Printf("%d rejected action(s):\n", len(actions))
	for _, a := range actions {
		c.printAction(a)
	}
	return nil
}

func (c *Cli) printAction(a *models.QueuedAction) {
	c.io.Printf("  #%d %-22s %s  attempts=%d\n", a.Seq, a.Kind, a.CreatedAt.Format(time.RFC3339), a.Attempts)
	if a.LastError != "" {
		c.io.Printf("      last error: %s\n", a.LastError)
	}
}

func (c *Cli) runClearQueue(ctx context.Context, args []string) error {
	confirmed := len(args) == 1 && args[0] == "--yes"
	if !confirmed {
		answer, err := c.io.ReadInput("Discard all queued actions without delivering them? [y/N]: ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			c.io.Println("Aborted.")
			return nil
		}
	}

	n, err := c.queue.ClearQueue(ctx)
	if errors.Is(err, queue.ErrBusy) {
		return fmt.Errorf("a delivery is in progress, try again later")
	}
	if err != nil {
		return err
	}

	c.io.Printf("Discarded %d action(s).\n", n)
	return nil
}
