package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
const NonceSize = 12

// ErrOpenFailed возвращается, если данные не удалось расшифровать:
// неверный PIN, другое устройство или поврежденная запись.
var ErrOpenFailed = errors.New("failed to open sealed data")

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aesGCM, nil
}

// Seal шифрует plaintext с AES-256-GCM и возвращает base64(nonce + ciphertext + tag).
// aad (например, deviceID) аутентифицируется, но не шифруется.
func Seal(plaintext, key, aad []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", fmt.Errorf("plaintext cannot be empty")
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize, NonceSize+len(plaintext)+aesGCM.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal дописывает ciphertext и tag после nonce
	sealed := aesGCM.Seal(nonce, nonce, plaintext, aad)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open расшифровывает результат Seal с тем же ключом и aad
func Open(sealed string, key, aad []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sealed data: %w", err)
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(raw) < NonceSize+aesGCM.Overhead() {
		return nil, fmt.Errorf("%w: data too short", ErrOpenFailed)
	}

	plaintext, err := aesGCM.Open(nil, raw[:NonceSize], raw[NonceSize:], aad)
	if err != nil {
		return nil, ErrOpenFailed
	}

	return plaintext, nil
}
