package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/escrutinio/internal/client/storage"
)

// mockAuthStorage implements storage.AuthStorage for testing
type mockAuthStorage struct {
	data    *storage.AuthData
	saveErr error
	getErr  error
}

func (m *mockAuthStorage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *auth
	m.data = &cp
	return nil
}

func (m *mockAuthStorage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.data == nil {
		return nil, storage.ErrAuthNotFound
	}
	cp := *m.data
	return &cp, nil
}

func (m *mockAuthStorage) DeleteAuth(ctx context.Context) error {
	if m.data == nil {
		return storage.ErrAuthNotFound
	}
	m.data = nil
	return nil
}

func (m *mockAuthStorage) IsAuthenticated(ctx context.Context) (bool, error) {
	return m.data != nil, nil
}

func TestAuthStore_SaveOpen(t *testing.T) {
	ctx := context.Background()
	mock := &mockAuthStorage{}
	store := NewAuthStore(mock)

	auth := &storage.AuthData{UserID: "u-op", Username: "operador", Role: "OPERATOR"}
	require.NoError(t, store.Save(ctx, auth, "plain-token", "123456", "device-1"))

	// Исходная структура не меняется, на диск не попадает открытый токен
	assert.Empty(t, auth.SealedToken)
	require.NotNil(t, mock.data)
	assert.NotEmpty(t, mock.data.Salt)
	assert.NotContains(t, mock.data.SealedToken, "plain-token")

	got, token, err := store.Open(ctx, "123456", "device-1")
	require.NoError(t, err)
	assert.Equal(t, "plain-token", token)
	assert.Equal(t, "u-op", got.UserID)
}

func TestAuthStore_OpenFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		pin      string
		deviceID string
		wantErr  error
	}{
		{name: "wrong pin", pin: "654321", deviceID: "device-1", wantErr: ErrWrongPIN},
		{name: "other device", pin: "123456", deviceID: "device-2", wantErr: ErrWrongPIN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewAuthStore(&mockAuthStorage{})
			require.NoError(t, store.Save(ctx, &storage.AuthData{UserID: "u"}, "tok", "123456", "device-1"))

			_, _, err := store.Open(ctx, tt.pin, tt.deviceID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthStore_Errors(t *testing.T) {
	ctx := context.Background()

	store := NewAuthStore(&mockAuthStorage{})
	assert.Error(t, store.Save(ctx, nil, "tok", "123456", "device-1"))

	_, _, err := store.Open(ctx, "123456", "device-1")
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	boom := errors.New("disk error")
	store = NewAuthStore(&mockAuthStorage{saveErr: boom})
	assert.ErrorIs(t, store.Save(ctx, &storage.AuthData{}, "tok", "123456", "device-1"), boom)

	store = NewAuthStore(&mockAuthStorage{data: &storage.AuthData{Salt: "%%%"}})
	_, _, err = store.Open(ctx, "123456", "device-1")
	assert.ErrorContains(t, err, "decode salt")
}
