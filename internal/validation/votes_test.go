package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

func validPayload() *api.VotePayload {
	return &api.VotePayload{
		EscrutinioID: "E1",
		DeviceID:     "device-1",
		Votes: []api.VoteDelta{
			{CandidateID: "C1", Delta: 1, Timestamp: 1700000000000, ClientBatchID: "B1"},
			{CandidateID: "C2", Delta: -2, Timestamp: 1700000000001, ClientBatchID: "B1"},
		},
	}
}

func TestValidateVotePayload_Valid(t *testing.T) {
	p := validPayload()
	acc := 5.0
	p.GPS = &api.GPS{Latitude: -17.78, Longitude: -63.18, Accuracy: &acc}

	got, err := ValidateVotePayload(p)
	require.NoError(t, err)

	assert.Equal(t, "E1", got.EscrutinioID)
	assert.Equal(t, "B1", got.BatchID())
	require.Len(t, got.Votes, 2)
	assert.Equal(t, int64(-2), got.Votes[1].Delta)
	require.NotNil(t, got.GPS)
	assert.Equal(t, -17.78, got.GPS.Latitude)
}

func TestValidateVotePayload_GPSIsOptional(t *testing.T) {
	got, err := ValidateVotePayload(validPayload())
	require.NoError(t, err)
	assert.Nil(t, got.GPS)
}

func TestValidateVotePayload_Errors(t *testing.T) {
	tests := []struct {
		mutate    func(p *api.VotePayload)
		name      string
		wantField string
	}{
		{
			name:      "empty escrutinioId",
			mutate:    func(p *api.VotePayload) { p.EscrutinioID = "" },
			wantField: "escrutinioId",
		},
		{
			name:      "whitespace escrutinioId",
			mutate:    func(p *api.VotePayload) { p.EscrutinioID = "   " },
			wantField: "escrutinioId",
		},
		{
			name:      "nil votes",
			mutate:    func(p *api.VotePayload) { p.Votes = nil },
			wantField: "votes",
		},
		{
			name:      "empty votes",
			mutate:    func(p *api.VotePayload) { p.Votes = []api.VoteDelta{} },
			wantField: "votes",
		},
		{
			name:      "delta above range",
			mutate:    func(p *api.VotePayload) { p.Votes[0].Delta = 1500 },
			wantField: "votes[0].delta",
		},
		{
			name:      "delta below range",
			mutate:    func(p *api.VotePayload) { p.Votes[1].Delta = -1001 },
			wantField: "votes[1].delta",
		},
		{
			name:      "fractional delta",
			mutate:    func(p *api.VotePayload) { p.Votes[1].Delta = 1.5 },
			wantField: "votes[1].delta",
		},
		{
			name:      "empty clientBatchId",
			mutate:    func(p *api.VotePayload) { p.Votes[0].ClientBatchID = "" },
			wantField: "votes[0].clientBatchId",
		},
		{
			name:      "mixed clientBatchId",
			mutate:    func(p *api.VotePayload) { p.Votes[1].ClientBatchID = "B2" },
			wantField: "votes[1].clientBatchId",
		},
		{
			name:      "missing candidate",
			mutate:    func(p *api.VotePayload) { p.Votes[1].CandidateID = "" },
			wantField: "votes[1].candidateId",
		},
		{
			name: "fractional delta reported before later range error",
			mutate: func(p *api.VotePayload) {
				p.Votes[0].Delta = 1.5
				p.Votes[1].Delta = 1500
			},
			wantField: "votes[0].delta",
		},
		{
			name: "mixed clientBatchId reported before later missing candidate",
			mutate: func(p *api.VotePayload) {
				p.Votes[1].ClientBatchID = "B2"
				p.Votes = append(p.Votes, api.VoteDelta{Delta: 1, Timestamp: 1, ClientBatchID: "B1"})
			},
			wantField: "votes[1].clientBatchId",
		},
		{
			name: "earlier missing candidate reported before mixed clientBatchId",
			mutate: func(p *api.VotePayload) {
				p.Votes[0].CandidateID = ""
				p.Votes[1].ClientBatchID = "B2"
			},
			wantField: "votes[0].candidateId",
		},
		{
			name:      "missing timestamp",
			mutate:    func(p *api.VotePayload) { p.Votes[0].Timestamp = 0 },
			wantField: "votes[0].timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(p)

			got, err := ValidateVotePayload(p)
			require.Error(t, err)
			assert.Nil(t, got)

			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.True(t, models.IsPermanent(err))
		})
	}
}

func TestValidateVotePayload_BoundaryDeltas(t *testing.T) {
	p := validPayload()
	p.Votes[0].Delta = 1000
	p.Votes[1].Delta = -1000

	got, err := ValidateVotePayload(p)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Votes[0].Delta)
	assert.Equal(t, int64(-1000), got.Votes[1].Delta)
}

func TestValidateVotePayload_ErrorMessages(t *testing.T) {
	p := validPayload()
	p.Votes[1].Delta = 0.25
	_, err := ValidateVotePayload(p)
	assert.EqualError(t, err, "validation failed: votes[1].delta: must be an integer")

	p = validPayload()
	p.Votes[1].ClientBatchID = " B1 "
	_, err = ValidateVotePayload(p)
	require.NoError(t, err, "batch ids are compared after trimming")
}

func TestValidateBallotVotes(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		votes, err := ValidateBallotVotes([]api.PapeletaVoteRequest{
			{PartyID: "P1", CasillaNumber: 1},
			{PartyID: " P2 ", CasillaNumber: 3, EntryID: "e-2"},
		})
		require.NoError(t, err)
		require.Len(t, votes, 2)
		assert.Equal(t, "P2", votes[1].PartyID)
		assert.Equal(t, "e-2", votes[1].EntryID)
	})

	t.Run("one invalid rejects all", func(t *testing.T) {
		votes, err := ValidateBallotVotes([]api.PapeletaVoteRequest{
			{PartyID: "P1", CasillaNumber: 1},
			{PartyID: "", CasillaNumber: 2},
		})
		require.Error(t, err)
		assert.Nil(t, votes)

		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "votes[1].partyId", ve.Field)
	})

	t.Run("negative casilla", func(t *testing.T) {
		_, err := ValidateBallotVotes([]api.PapeletaVoteRequest{{PartyID: "P1", CasillaNumber: -1}})
		var ve *models.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "votes[0].casillaNumber", ve.Field)
	})

	t.Run("empty batch clears buffer", func(t *testing.T) {
		votes, err := ValidateBallotVotes(nil)
		require.NoError(t, err)
		assert.Empty(t, votes)
	})
}

func TestStruct_StartRequestUUID(t *testing.T) {
	err := Struct(&api.StartPapeletaRequest{PapeletaID: "not-a-uuid"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "papeletaId", ve.Field)

	assert.NoError(t, Struct(&api.StartPapeletaRequest{}))
}
