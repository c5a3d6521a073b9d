package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVotePayload_BatchID(t *testing.T) {
	p := &VotePayload{}
	assert.Empty(t, p.BatchID())

	p.Votes = []VoteDelta{{CandidateID: "c1", ClientBatchID: "b1", Delta: 1}}
	assert.Equal(t, "b1", p.BatchID())
}

func TestVotePayload_NetDeltas(t *testing.T) {
	tests := []struct {
		name  string
		votes []VoteDelta
		want  map[string]int64
	}{
		{
			name:  "empty",
			votes: nil,
			want:  map[string]int64{},
		},
		{
			name: "sum per candidate",
			votes: []VoteDelta{
				{CandidateID: "c1", Delta: 3},
				{CandidateID: "c2", Delta: 1},
				{CandidateID: "c1", Delta: -1},
			},
			want: map[string]int64{"c1": 2, "c2": 1},
		},
		{
			name: "cancelling deltas keep a zero entry",
			votes: []VoteDelta{
				{CandidateID: "c1", Delta: 5},
				{CandidateID: "c1", Delta: -5},
			},
			want: map[string]int64{"c1": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &VotePayload{Votes: tt.votes}
			assert.Equal(t, tt.want, p.NetDeltas())
		})
	}
}

func TestVotePayload_SortedNetDeltas(t *testing.T) {
	p := &VotePayload{Votes: []VoteDelta{
		{CandidateID: "zeta", Delta: 1},
		{CandidateID: "alpha", Delta: 2},
		{CandidateID: "mid", Delta: -1},
		{CandidateID: "alpha", Delta: 1},
	}}

	assert.Equal(t, []CandidateDelta{
		{CandidateID: "alpha", Delta: 3},
		{CandidateID: "mid", Delta: -1},
		{CandidateID: "zeta", Delta: 1},
	}, p.SortedNetDeltas())
}
