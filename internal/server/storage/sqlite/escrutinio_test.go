package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage"
)

func TestEscrutinioStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	e := createTestEscrutinio(t, ctx, s, models.ElectionLevelLegislative)

	got, err := s.GetEscrutinio(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.MesaNumber, got.MesaNumber)
	assert.Equal(t, models.ElectionLevelLegislative, got.ElectionLevel)
	assert.True(t, got.IsOpen())
	assert.Nil(t, got.CompletedAt)
	assert.Nil(t, got.LastGPS)

	// Тот же участок и уровень повторно
	dup := &models.Escrutinio{
		ID:            uuid.New().String(),
		MesaNumber:    e.MesaNumber,
		ElectionLevel: e.ElectionLevel,
		CreatedAt:     time.Now(),
	}
	assert.ErrorIs(t, s.CreateEscrutinio(ctx, dup), storage.ErrEscrutinioExists)

	_, err = s.GetEscrutinio(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrEscrutinioNotFound)
}

func TestEscrutinioStorage_GPSAndCompletion(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	e := createTestEscrutinio(t, ctx, s, models.ElectionLevelPresidential)
	accuracy := 12.5
	completedAt := time.Unix(1_700_000_000, 0)

	err := s.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpdateEscrutinioGPS(ctx, e.ID, &models.GPS{Latitude: 14.1, Longitude: -87.2, Accuracy: &accuracy}); err != nil {
			return err
		}
		// nil позиция ничего не меняет
		if err := tx.UpdateEscrutinioGPS(ctx, e.ID, nil); err != nil {
			return err
		}
		return tx.CompleteEscrutinio(ctx, e.ID, completedAt, "https://evidence/acta.jpg", "abc123")
	})
	require.NoError(t, err)

	got, err := s.GetEscrutinio(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastGPS)
	assert.InDelta(t, 14.1, got.LastGPS.Latitude, 1e-9)
	require.NotNil(t, got.LastGPS.Accuracy)
	assert.InDelta(t, 12.5, *got.LastGPS.Accuracy, 1e-9)
	assert.Equal(t, models.EscrutinioStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, completedAt.Unix(), got.CompletedAt.Unix())
	assert.Equal(t, "abc123", got.EvidenceHash)

	err = s.WithTx(ctx, func(tx storage.Tx) error {
		return tx.CompleteEscrutinio(ctx, "missing", completedAt, "", "")
	})
	assert.ErrorIs(t, err, storage.ErrEscrutinioNotFound)
}

func TestEscrutinioStorage_ResolveCandidate(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateCandidate(ctx, &models.Candidate{
		ID:            "cand-liberal-3",
		PartyID:       "liberal",
		Name:          "Candidate Three",
		ElectionLevel: models.ElectionLevelLegislative,
		CasillaNumber: 3,
	}))

	tests := []struct {
		wantErr error
		name    string
		party   string
		want    string
		casilla int
	}{
		{name: "match", party: "liberal", casilla: 3, want: "cand-liberal-3"},
		{name: "wrong casilla", party: "liberal", casilla: 4, wantErr: storage.ErrCandidateNotFound},
		{name: "wrong party", party: "nacional", casilla: 3, wantErr: storage.ErrCandidateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			err := s.WithTx(ctx, func(tx storage.Tx) error {
				var err error
				got, err = tx.ResolveCandidate(ctx, models.ElectionLevelLegislative, tt.party, tt.casilla)
				return err
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEscrutinioStorage_CandidateExists(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateCandidate(ctx, &models.Candidate{
		ID:            "cand-pres-1",
		PartyID:       "liberal",
		ElectionLevel: models.ElectionLevelPresidential,
		CasillaNumber: 1,
	}))

	tests := []struct {
		name      string
		level     string
		candidate string
		want      bool
	}{
		{name: "registered", level: models.ElectionLevelPresidential, candidate: "cand-pres-1", want: true},
		{name: "other level", level: models.ElectionLevelMunicipal, candidate: "cand-pres-1", want: false},
		{name: "unknown", level: models.ElectionLevelPresidential, candidate: "cand-pres-9", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			err := s.WithTx(ctx, func(tx storage.Tx) error {
				var err error
				got, err = tx.CandidateExists(ctx, tt.level, tt.candidate)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
