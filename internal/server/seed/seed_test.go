package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/models"
	"github.com/iudanet/escrutinio/internal/server/storage/sqlite"
)

const fixture = `
users:
  - id: u-op
    username: operador
    name: Operador Uno
    email: op@example.org
    role: OPERATOR
escrutinios:
  - id: E1
    mesa: "0042"
    level: DIPUTADOS
    user_id: u-op
candidates:
  - id: P1-1
    party: P1
    casilla: 1
    level: DIPUTADOS
  - id: P2-1
    party: P2
    casilla: 1
    level: DIPUTADOS
`

func TestApply_Idempotent(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Candidates, 2)

	s, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	res, err := Apply(ctx, logger, s, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 4}, res)

	res, err = Apply(ctx, logger, s, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 4}, res)

	e, err := s.GetEscrutinio(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, models.EscrutinioStatusOpen, e.Status)
	assert.Equal(t, "0042", e.MesaNumber)

	u, err := s.GetUserByID(ctx, "u-op")
	require.NoError(t, err)
	assert.Equal(t, "Operador Uno", u.Name)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users: [unclosed"), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
