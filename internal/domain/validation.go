package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidHolderName  = errors.New("invalid card holder name")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidEmail       = errors.New("invalid email format")
)

// Validation constants
const (
	MaxHolderNameLength  = 64
	MaxDescriptionLength = 140
	MaxMerchantLength    = 100
	DefaultPageSize      = 20
	MaxPageSize          = 100
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
	cpfRegex   = regexp.MustCompile(`^[0-9]{11}$`)
)

// ValidateAmount checks that amount is positive and, when ceiling is
// positive, does not exceed it.
func ValidateAmount(amount, ceiling int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if ceiling > 0 && amount > ceiling {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, FormatAmount(ceiling))
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}

	return nil
}

// NormalizePaymentKey trims and canonicalises a key of the given type.
func NormalizePaymentKey(keyType PaymentKeyType, key string) string {
	key = strings.TrimSpace(key)
	switch keyType {
	case PaymentKeyEmail:
		return strings.ToLower(key)
	case PaymentKeyCPF:
		return strings.NewReplacer(".", "", "-", "").Replace(key)
	}
	return key
}

// ValidatePaymentKey validates a normalized key against its type.
func ValidatePaymentKey(keyType PaymentKeyType, key string) error {
	var ok bool
	switch keyType {
	case PaymentKeyEmail:
		ok = emailRegex.MatchString(key)
	case PaymentKeyPhone:
		ok = phoneRegex.MatchString(key)
	case PaymentKeyCPF:
		ok = cpfRegex.MatchString(key)
	case PaymentKeyRandom:
		ok = key != "" && len(key) <= 64
	}

	if !ok {
		return fmt.Errorf("%w: %q is not a valid %s key", ErrInvalidPaymentKey, key, keyType)
	}

	return nil
}

// ValidateHolderName validates the printed card holder name.
func ValidateHolderName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidHolderName)
	}

	if utf8.RuneCountInString(name) > MaxHolderNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidHolderName, MaxHolderNameLength)
	}

	return nil
}

// ValidateDescription validates free-text descriptions on transfers and receivables.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: limit is %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}

	return nil
}

// TruncateRunes trims s and cuts it to at most n characters without
// splitting a multi-byte rune.
func TruncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
