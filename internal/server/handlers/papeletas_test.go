package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/pkg/api"
)

func startBallot(t *testing.T, ts *testServer) api.PapeletaResponse {
	t.Helper()
	w := ts.do(t, operator, http.MethodPost, "/api/v1/escrutinios/EL/papeletas", api.StartPapeletaRequest{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[api.PapeletaResponse](t, w)
}

func TestPapeletaHandler_ScenarioB(t *testing.T) {
	ts := newTestServer(t)
	p := startBallot(t, ts)
	assert.Equal(t, models.PapeletaStatusOpen, p.Status)
	assert.Equal(t, "EL", p.EscrutinioID)
	assert.Equal(t, operator.UserID, p.UserID)

	for _, party := range []string{"P1", "P2"} {
		w := ts.do(t, operator, http.MethodPost, "/api/v1/papeletas/"+p.ID+"/votes", api.PapeletaVoteRequest{PartyID: party, CasillaNumber: 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := ts.do(t, operator, http.MethodPost, "/api/v1/papeletas/"+p.ID+"/anular", api.AnularRequest{Reason: "error"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[api.AnularResponse](t, w)
	assert.Equal(t, models.PapeletaStatusAnulada, resp.Status)
	assert.Equal(t, 2, resp.VotesDiscarded)
	assert.Equal(t, "error", resp.AnuladaReason)
	require.NotNil(t, resp.AnuladaAt)

	w = ts.do(t, operator, http.MethodGet, "/api/v1/escrutinios/EL/counters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[api.CountersResponse](t, w).Counters)

	// Бюллетень заморожен
	w = ts.do(t, operator, http.MethodPost, "/api/v1/papeletas/"+p.ID+"/votes", api.PapeletaVoteRequest{PartyID: "P1", CasillaNumber: 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = ts.do(t, operator, http.MethodPut, "/api/v1/papeletas/"+p.ID+"/votes", api.VotesBatchRequest{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, operator, http.MethodGet, "/api/v1/papeletas/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[api.PapeletaResponse](t, w).VotesBuffer, 2)
}

func TestPapeletaHandler_BatchAndCommit(t *testing.T) {
	ts := newTestServer(t)
	p := startBallot(t, ts)

	// Невалидный элемент отклоняет весь batch
	w := ts.do(t, operator, http.MethodPut, "/api/v1/papeletas/"+p.ID+"/votes", api.VotesBatchRequest{
		Votes: []api.PapeletaVoteRequest{{PartyID: "P1", CasillaNumber: 1}, {PartyID: "", CasillaNumber: 1}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "votes[1].partyId", decode[api.ErrorResponse](t, w).Field)

	w = ts.do(t, operator, http.MethodPut, "/api/v1/papeletas/"+p.ID+"/votes", api.VotesBatchRequest{
		Votes: []api.PapeletaVoteRequest{{PartyID: "P1", CasillaNumber: 1}, {PartyID: "P2", CasillaNumber: 1}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[api.PapeletaResponse](t, w).VotesBuffer, 2)

	w = ts.do(t, operator, http.MethodPost, "/api/v1/papeletas/"+p.ID+"/commit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	commit := decode[api.CommitResponse](t, w)
	assert.Equal(t, models.PapeletaStatusCommitted, commit.Papeleta.Status)
	assert.Equal(t, map[string]int64{"P1-1": 1, "P2-1": 1}, commit.Result.Counters)

	w = ts.do(t, operator, http.MethodPost, "/api/v1/papeletas/"+p.ID+"/commit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[api.CommitResponse](t, w).Result.Duplicate)
}

func TestPapeletaHandler_Errors(t *testing.T) {
	ts := newTestServer(t)
	p := startBallot(t, ts)
	stranger := models.Actor{UserID: "u-other", Role: models.RoleOperator}

	tests := []struct {
		body     any
		name     string
		method   string
		path     string
		actor    models.Actor
		wantCode int
	}{
		{name: "start on non ballot level", actor: operator, method: http.MethodPost, path: "/api/v1/escrutinios/E1/papeletas", wantCode: http.StatusConflict},
		{name: "start with invalid id", actor: operator, method: http.MethodPost, path: "/api/v1/escrutinios/EL/papeletas", body: api.StartPapeletaRequest{PapeletaID: "not-a-uuid"}, wantCode: http.StatusBadRequest},
		{name: "status of unknown", actor: operator, method: http.MethodGet, path: "/api/v1/papeletas/" + uuid.New().String(), wantCode: http.StatusNotFound},
		{name: "vote by stranger", actor: stranger, method: http.MethodPost, path: "/api/v1/papeletas/" + p.ID + "/votes", body: api.PapeletaVoteRequest{PartyID: "P1", CasillaNumber: 1}, wantCode: http.StatusForbidden},
		{name: "vote without party", actor: operator, method: http.MethodPost, path: "/api/v1/papeletas/" + p.ID + "/votes", body: api.PapeletaVoteRequest{CasillaNumber: 1}, wantCode: http.StatusBadRequest},
		{name: "reason too long", actor: operator, method: http.MethodPost, path: "/api/v1/papeletas/" + p.ID + "/anular", body: api.AnularRequest{Reason: strings.Repeat("x", 501)}, wantCode: http.StatusBadRequest},
		{name: "commit empty ballot", actor: operator, method: http.MethodPost, path: "/api/v1/papeletas/" + p.ID + "/commit", wantCode: http.StatusConflict},
		{name: "no identity", actor: models.Actor{}, method: http.MethodGet, path: "/api/v1/papeletas/" + p.ID, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.actor, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestPapeletaHandler_StartReplay(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New().String()

	for i := 0; i < 2; i++ {
		w := ts.do(t, operator, http.MethodPost, "/api/v1/escrutinios/EL/papeletas", api.StartPapeletaRequest{PapeletaID: id})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, id, decode[api.PapeletaResponse](t, w).ID)
	}
}
