package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// HashEvidence возвращает hex SHA256 фото акта escrutinio.
// Хеш сохраняется рядом со ссылкой на файл и позволяет проверить,
// что загруженное изображение не подменено.
func HashEvidence(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("evidence cannot be empty")
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyEvidence проверяет, соответствует ли файл сохраненному хешу
func VerifyEvidence(data []byte, expected string) error {
	if expected == "" {
		return fmt.Errorf("expected hash cannot be empty")
	}

	computed, err := HashEvidence(data)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) != 1 {
		return fmt.Errorf("evidence hash mismatch")
	}

	return nil
}
