package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/escrutinio/internal/client/queue"
	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/validation"
	"github.com/iudanet/escrutinio/pkg/api"
)

// runBallot ставит действия над бюллетенем в очередь.
// status - единственная подкоманда, которой нужна связь с сервером.
func (c *Cli) runBallot(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: ballot start|vote|sync|anular|commit|status ...", ErrUsage)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "start":
		papeletaID := uuid.NewString()
		if len(rest) > 1 {
			papeletaID = rest[1]
		}
		if _, err := uuid.Parse(papeletaID); err != nil {
			return models.NewValidationError("papeletaId", "must be a valid UUID")
		}
		return c.enqueueBallot(ctx, models.ActionPapeletaStart, queue.BallotPayload{EscrutinioID: rest[0], PapeletaID: papeletaID})

	case "vote":
		if len(rest) != 3 {
			return fmt.Errorf("%w: ballot vote PAPELETA PARTY CASILLA", ErrUsage)
		}
		casilla, err := strconv.Atoi(rest[2])
		if err != nil {
			return models.NewValidationError("casillaNumber", "must be an integer")
		}
		// entryId делает повторную доставку того же выбора безопасной
		vote := &api.PapeletaVoteRequest{EntryID: uuid.NewString(), PartyID: rest[1], CasillaNumber: casilla}
		return c.enqueueBallot(ctx, models.ActionPapeletaVote, queue.BallotPayload{PapeletaID: rest[0], Vote: vote})

	case "sync":
		votes, err := parseSelections(rest[1:])
		if err != nil {
			return err
		}
		return c.enqueueBallot(ctx, models.ActionPapeletaVotesSync, queue.BallotPayload{PapeletaID: rest[0], Votes: votes})

	case "anular":
		return c.enqueueBallot(ctx, models.ActionPapeletaAnular, queue.BallotPayload{PapeletaID: rest[0], Reason: strings.Join(rest[1:], " ")})

	case "commit":
		return c.enqueueBallot(ctx, models.ActionPapeletaCommit, queue.BallotPayload{PapeletaID: rest[0]})

	case "status":
		return c.ballotStatus(ctx, rest[0])

	default:
		return fmt.Errorf("%w: unknown ballot command %q", ErrUsage, sub)
	}
}

// parseSelections разбирает выборы вида PARTY:CASILLA.
// Пустой список очищает буфер бюллетеня на сервере.
func parseSelections(args []string) ([]api.PapeletaVoteRequest, error) {
	votes := make([]api.PapeletaVoteRequest, 0, len(args))
	for i, arg := range args {
		party, casillaStr, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("votes[%d]", i), "must be PARTY:CASILLA")
		}
		casilla, err := strconv.Atoi(casillaStr)
		if err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("votes[%d].casillaNumber", i), "must be an integer")
		}
		votes = append(votes, api.PapeletaVoteRequest{EntryID: uuid.NewString(), PartyID: party, CasillaNumber: casilla})
	}

	if _, err := validation.ValidateBallotVotes(votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *Cli) enqueueBallot(ctx context.Context, kind string, p queue.BallotPayload) error {
	action, err := c.queue.Enqueue(ctx, kind, p)
	if err != nil {
		return err
	}
	c.io.Printf("✓ Queued %s for papeleta %s (#%d)\n", kind, p.PapeletaID, action.Seq)
	return nil
}

func (c *Cli) ballotStatus(ctx context.Context, papeletaID string) error {
	if err := c.unlock(ctx); err != nil {
		return err
	}

	p, err := c.api.PapeletaStatus(ctx, papeletaID)
	if err != nil {
		return err
	}

	c.io.Printf("Papeleta %s: %s\n", p.ID, p.Status)
	c.io.Printf("Escrutinio: %s\n", p.EscrutinioID)
	if p.AnuladaReason != "" {
		c.io.Printf("Reason: %s\n", p.AnuladaReason)
	}
	c.io.Printf("Buffered votes: %d\n", len(p.VotesBuffer))
	for i, v := range p.VotesBuffer {
		c.io.Printf("  %d. party=%s casilla=%d\n", i+1, v.PartyID, v.CasillaNumber)
	}
	return nil
}
