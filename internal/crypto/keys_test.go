package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt1, SaltSize)

	salt2, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt1, salt2, "соли должны быть разными")
}

func TestDeriveDeviceKey(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	tests := []struct {
		name     string
		pin      string
		deviceID string
		errMsg   string
		salt     []byte
	}{
		{name: "successful derivation", pin: "123456", deviceID: "tablet-01", salt: salt},
		{name: "empty pin", pin: "", deviceID: "tablet-01", salt: salt, errMsg: "pin cannot be empty"},
		{name: "empty device", pin: "123456", deviceID: "", salt: salt, errMsg: "device id cannot be empty"},
		{name: "short salt", pin: "123456", deviceID: "tablet-01", salt: []byte("short"), errMsg: "salt must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveDeviceKey(tt.pin, tt.deviceID, tt.salt)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, key)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, KeySize)
		})
	}
}

func TestDeriveDeviceKey_Determinism(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	key1, err := DeriveDeviceKey("123456", "tablet-01", salt)
	require.NoError(t, err)
	key2, err := DeriveDeviceKey("123456", "tablet-01", salt)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	// Тот же PIN на другом устройстве
	other, err := DeriveDeviceKey("123456", "tablet-02", salt)
	require.NoError(t, err)
	assert.NotEqual(t, key1, other)

	otherPIN, err := DeriveDeviceKey("654321", "tablet-01", salt)
	require.NoError(t, err)
	assert.NotEqual(t, key1, otherPIN)
}
