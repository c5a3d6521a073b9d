package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/iudanet/escrutinio/internal/client/events"
	"github.com/iudanet/escrutinio/internal/client/queue"
	"github.com/iudanet/escrutinio/internal/models"
)

func (c *Cli) runVote(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("vote", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	mesa := fs.String("mesa", "", "mesa number")
	lat := fs.Float64("lat", 0, "GPS latitude")
	lon := fs.Float64("lon", 0, "GPS longitude")
	accuracy := fs.Float64("accuracy", 0, "GPS accuracy in meters")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("%w: vote ESCRUTINIO CANDIDATE DELTA", ErrUsage)
	}

	delta, err := strconv.ParseInt(fs.Arg(2), 10, 64)
	if err != nil {
		return models.NewValidationError("delta", "must be an integer")
	}

	in := events.VoteInput{
		EscrutinioID: fs.Arg(0),
		CandidateID:  fs.Arg(1),
		Delta:        delta,
		MesaID:       *mesa,
	}
	if *lat != 0 || *lon != 0 {
		in.GPS = &models.GPS{Latitude: *lat, Longitude: *lon}
		if *accuracy > 0 {
			in.GPS.Accuracy = accuracy
		}
	}
	if authData, err := c.session.Current(ctx); err == nil {
		in.UserID = authData.UserID
	}

	event, err := c.recorder.RecordVote(ctx, in)
	if err != nil {
		return err
	}

	c.io.Printf("✓ Recorded %+d for %s (batch %s)\n", delta, in.CandidateID, event.ClientBatchID)
	return nil
}

func (c *Cli) runFlush(ctx context.Context) error {
	result, err := c.recorder.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}

	if len(result.BatchIDs) == 0 {
		c.io.Println("Nothing to flush.")
	} else {
		c.io.Printf("✓ Queued %d batch(es), %d event(s)\n", len(result.BatchIDs), result.Events)
		for _, id := range result.BatchIDs {
			c.io.Printf("  %s\n", id)
		}
	}
	if result.Kept > 0 {
		c.io.Printf("%d event(s) kept in the buffer\n", result.Kept)
	}
	return nil
}

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")

	if err := c.unlock(ctx); err != nil {
		return err
	}
	if err := c.runFlush(ctx); err != nil {
		return err
	}

	result, err := c.queue.ProcessQueue(ctx)
	if errors.Is(err, queue.ErrBusy) {
		return fmt.Errorf("another delivery is in progress")
	}

	if result != nil {
		c.io.Println()
		c.io.Printf("Delivered: %d\n", result.Delivered)
		if result.Rejected > 0 {
			c.io.Printf("Rejected:  %d (see 'escrutinio rejected')\n", result.Rejected)
		}
		c.io.Printf("Remaining: %d\n", result.Remaining)
	}
	if err != nil {
		return fmt.Errorf("delivery stopped, the action stays queued: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ All queued actions delivered.")
	return nil
}

// runLoop периодически переносит буфер в очередь и доставляет ее до SIGINT/SIGTERM
func (c *Cli) runLoop(ctx context.Context) error {
	if err := c.unlock(ctx); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.io.Printf("Delivering every %s, press Ctrl+C to stop\n", c.pollInterval)

	done := make(chan error, 1)
	go func() { done <- c.queue.Run(ctx, c.pollInterval) }()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := c.recorder.Flush(ctx); err != nil && ctx.Err() == nil {
			c.io.Printf("flush failed: %v\n", err)
		}

		select {
		case <-ctx.Done():
			// Текущая доставка завершается до выхода
			err := <-done
			c.io.Println("Stopped.")
			return err
		case <-ticker.C:
		}
	}
}

func (c *Cli) runCounters(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: counters ESCRUTINIO", ErrUsage)
	}
	if err := c.unlock(ctx); err != nil {
		return err
	}

	resp, err := c.api.Counters(ctx, args[0])
	if err != nil {
		return err
	}

	c.io.Printf("Escrutinio %s (%s)\n", resp.EscrutinioID, resp.Status)
	ids := make([]string, 0, len(resp.Counters))
	for id := range resp.Counters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c.io.Printf("  %-20s %d\n", id, resp.Counters[id])
	}
	return nil
}
