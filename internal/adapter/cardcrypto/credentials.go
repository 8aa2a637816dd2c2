// Package cardcrypto generates card numbers and CVVs and hashes CVVs at rest.
package cardcrypto

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	numberLength = 16
	cvvLength    = 3
	// All issued cards are on the Visa range.
	issuerPrefix = "4"
)

// Credentials implements usecase.CardCredentials.
type Credentials struct {
	cost int
}

// New returns Credentials hashing with the given bcrypt cost; zero uses bcrypt.DefaultCost.
func New(cost int) *Credentials {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Credentials{cost: cost}
}

// NewNumber returns a random 16 digit number with a valid Luhn check digit.
func (c *Credentials) NewNumber() (string, error) {
	body, err := randomDigits(numberLength - len(issuerPrefix) - 1)
	if err != nil {
		return "", err
	}
	partial := issuerPrefix + body
	return partial + string(rune('0'+luhnCheckDigit(partial))), nil
}

// NewCVV returns a random three digit CVV.
func (c *Credentials) NewCVV() (string, error) {
	return randomDigits(cvvLength)
}

// HashCVV hashes cvv for storage.
func (c *Credentials) HashCVV(cvv string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cvv), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash cvv: %w", err)
	}
	return string(hash), nil
}

// VerifyCVV reports whether cvv matches hash.
func (c *Credentials) VerifyCVV(hash, cvv string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(cvv)) == nil
}

// ValidLuhn reports whether number passes the Luhn checksum.
func ValidLuhn(number string) bool {
	if len(number) < 2 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	body, check := number[:len(number)-1], int(number[len(number)-1]-'0')
	return luhnCheckDigit(body) == check
}

func luhnCheckDigit(partial string) int {
	sum := 0
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		d := int(partial[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

func randomDigits(n int) (string, error) {
	digits := make([]byte, n)
	ten := big.NewInt(10)
	for i := range digits {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("read random digit: %w", err)
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}
