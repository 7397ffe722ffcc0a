// Package pan generates, protects and masks primary account numbers.
package pan

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const panLength = 16

// mirPrefixes are the issuing network prefixes a generated PAN may
// start with.
var mirPrefixes = []string{"2200", "2201", "2202", "2204"}

// Generator produces syntactically valid 16-digit card numbers: a
// network prefix, a random middle and a Luhn check digit. It never
// touches storage.
type Generator struct {
	prefixes []string
}

// NewGenerator creates a Generator over the default prefix set
func NewGenerator() *Generator {
	return &Generator{prefixes: mirPrefixes}
}

// Generate returns a new Luhn-valid 16-digit PAN
func (g *Generator) Generate() (string, error) {
	idx, err := randomIndex(len(g.prefixes))
	if err != nil {
		return "", fmt.Errorf("failed to pick prefix: %w", err)
	}
	prefix := g.prefixes[idx]

	middle, err := randomDigits(panLength - len(prefix) - 1)
	if err != nil {
		return "", fmt.Errorf("failed to generate card number body: %w", err)
	}

	var b strings.Builder
	b.WriteString(prefix)
	for _, d := range middle {
		b.WriteByte(d + '0')
	}

	body := b.String()
	b.WriteByte(checkDigit(body) + '0')

	return b.String(), nil
}

// checkDigit computes the Luhn check digit for the 15-digit body so
// that the full number validates under the mod-10 algorithm.
func checkDigit(body string) byte {
	sum := 0
	// walk from the right; with the check digit appended these
	// positions become the doubled ones
	for i := 0; i < len(body); i++ {
		digit := int(body[len(body)-1-i] - '0')
		if i%2 == 0 {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
	}
	return byte((10 - sum%10) % 10)
}

// LuhnValid reports whether the number passes the standard mod-10 check
func LuhnValid(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}

// randomIndex returns a uniform index in [0, n)
func randomIndex(n int) (int, error) {
	limit := 256 - 256%n
	buf := make([]byte, 1)
	for {
		if _, err := rand.Read(buf); err != nil {
			return 0, err
		}
		if int(buf[0]) < limit {
			return int(buf[0]) % n, nil
		}
	}
}

// randomDigits returns n uniformly distributed decimal digits
func randomDigits(n int) ([]byte, error) {
	digits := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(digits) < n {
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		for _, b := range buf {
			// rejection sampling keeps the distribution uniform
			if b < 250 {
				digits = append(digits, b%10)
				if len(digits) == n {
					break
				}
			}
		}
	}
	return digits, nil
}
