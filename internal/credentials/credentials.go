// Package credentials generates portal login credentials for newly approved
// members.
package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	digits    = "0123456789"
	symbols   = "!@#$%^&*"
	allChars  = uppercase + lowercase + digits + symbols

	// DefaultPasswordLength matches the credentials mailed on approval.
	DefaultPasswordLength = 10
)

// Username derives the login name from the member's first name and serial
// number: lowercase(firstName) + "_" + serNo. A missing first name falls
// back to "user"; a missing serial number falls back to a random 0-9999
// suffix so the username stays usable.
func Username(firstName string, serNo int64) string {
	if firstName == "" {
		firstName = "user"
	}
	suffix := fmt.Sprintf("%d", serNo)
	if serNo <= 0 {
		suffix = fmt.Sprintf("%d", randomInt(10000))
	}
	return strings.ToLower(firstName) + "_" + suffix
}

// Password returns a random password of the given length guaranteed to
// contain at least one uppercase letter, one lowercase letter, one digit and
// one symbol, with the remaining characters uniform over the combined
// alphabet and the final string shuffled. Lengths below 4 are raised to 4 so
// every class fits.
func Password(length int) string {
	if length < 4 {
		length = 4
	}

	chars := make([]byte, 0, length)
	chars = append(chars,
		uppercase[randomInt(len(uppercase))],
		lowercase[randomInt(len(lowercase))],
		digits[randomInt(len(digits))],
		symbols[randomInt(len(symbols))],
	)
	for len(chars) < length {
		chars = append(chars, allChars[randomInt(len(allChars))])
	}

	// Fisher-Yates so the guaranteed classes aren't pinned to the front.
	for i := len(chars) - 1; i > 0; i-- {
		j := randomInt(i + 1)
		chars[i], chars[j] = chars[j], chars[i]
	}
	return string(chars)
}

// Hash creates a bcrypt hash of a plaintext password. The plaintext is
// mailed to the member once and only the hash is stored.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash.
func Verify(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("could not verify password: %w", err)
	}
	return nil
}

// randomInt returns a uniform random int in [0, n) from crypto/rand.
// Credential material never comes from math/rand.
func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken; there is no
		// safe fallback for credential generation.
		panic(fmt.Sprintf("credentials: rng failure: %v", err))
	}
	return int(v.Int64())
}
