package validation

import (
	"fmt"
	"regexp"
)

// DeviceIDPattern определяет допустимый формат идентификатора устройства
// Латинские буквы, цифры, дефис и нижнее подчеркивание
// Длина: 3-128 символов
var DeviceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,128}$`)

// PINPattern PIN оператора: только цифры
var PINPattern = regexp.MustCompile(`^[0-9]+$`)

const (
	// MinPINLen минимальная длина PIN
	MinPINLen = 6
	// MaxPINLen максимальная длина PIN
	MaxPINLen = 12
)

// ValidateDeviceID проверяет идентификатор устройства
func ValidateDeviceID(deviceID string) error {
	if deviceID == "" {
		return fmt.Errorf("device id cannot be empty")
	}

	if !DeviceIDPattern.MatchString(deviceID) {
		return fmt.Errorf("device id must be 3-128 characters of letters, numbers, '-' or '_'")
	}

	return nil
}

// ValidatePIN проверяет PIN оператора устройства
func ValidatePIN(pin string) error {
	if pin == "" {
		return fmt.Errorf("PIN cannot be empty")
	}

	if len(pin) < MinPINLen {
		return fmt.Errorf("PIN must be at least %d digits long", MinPINLen)
	}

	if len(pin) > MaxPINLen {
		return fmt.Errorf("PIN must not exceed %d digits", MaxPINLen)
	}

	if !PINPattern.MatchString(pin) {
		return fmt.Errorf("PIN can only contain digits")
	}

	return nil
}
