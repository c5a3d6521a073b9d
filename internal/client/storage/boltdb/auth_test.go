package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/client/storage"
)

func TestAuth_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	auth := &storage.AuthData{
		UserID:      "u-op",
		Username:    "operador",
		Role:        "OPERATOR",
		SealedToken: "c2VhbGVk",
		Salt:        "c2FsdA==",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, s.SaveAuth(ctx, auth))

	got, err := s.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth, got)

	ok, err := s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteAuth(ctx))
	assert.ErrorIs(t, s.DeleteAuth(ctx), storage.ErrAuthNotFound)

	ok, err = s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuth_IsAuthenticated_Expiry(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt int64
		want      bool
	}{
		{name: "future", expiresAt: time.Now().Add(time.Hour).Unix(), want: true},
		{name: "past", expiresAt: time.Now().Add(-time.Hour).Unix(), want: false},
		{name: "unknown expiry", expiresAt: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := setupTestStorage(t)
			require.NoError(t, s.SaveAuth(ctx, &storage.AuthData{UserID: "u", ExpiresAt: tt.expiresAt}))

			ok, err := s.IsAuthenticated(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
