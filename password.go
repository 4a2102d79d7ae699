package authkit

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// StrengthPolicy validates candidate passwords. Swap the implementation on
// PasswordPolicy to change the rules.
type StrengthPolicy interface {
	// Validate returns nil for acceptable passwords, ErrPasswordTooShort or
	// ErrPasswordTooSimple otherwise (length is checked first).
	Validate(candidate string) error
}

// HashScheme is one entry in the ordered hash scheme list. New hashes always
// use the first scheme; verification accepts hashes from any listed scheme,
// which enables algorithm migration without invalidating stored credentials.
type HashScheme interface {
	Name() string
	Hash(plaintext string) (string, error)
	// Verify must return false, never an error, on malformed stored hashes.
	Verify(plaintext, hash string) bool
}

// PasswordPolicy bundles strength validation with the hash scheme list.
type PasswordPolicy struct {
	strength StrengthPolicy
	schemes  []HashScheme
}

// NewPasswordPolicy returns the default policy: minimum length plus
// lowercase/uppercase/digit composition, bcrypt for new hashes, PBKDF2-SHA256
// accepted for verification of legacy hashes.
func NewPasswordPolicy(minLength int) *PasswordPolicy {
	return &PasswordPolicy{
		strength: LengthCompositionPolicy{MinLength: minLength},
		schemes:  []HashScheme{BcryptScheme{}, PBKDF2Scheme{}},
	}
}

// WithStrengthPolicy swaps the strength rules.
func (p *PasswordPolicy) WithStrengthPolicy(s StrengthPolicy) *PasswordPolicy {
	if s != nil {
		p.strength = s
	}
	return p
}

// WithSchemes replaces the hash scheme list. The first scheme is preferred.
func (p *PasswordPolicy) WithSchemes(schemes ...HashScheme) *PasswordPolicy {
	if len(schemes) > 0 {
		p.schemes = schemes
	}
	return p
}

// ValidateStrength checks a candidate password against the strength policy.
func (p *PasswordPolicy) ValidateStrength(candidate string) error {
	return p.strength.Validate(candidate)
}

// Hash produces a hash using the preferred (first) scheme.
func (p *PasswordPolicy) Hash(plaintext string) (string, error) {
	return p.schemes[0].Hash(plaintext)
}

// Verify reports whether plaintext matches hash under any listed scheme.
// It never returns an error: malformed stored hashes verify as false.
func (p *PasswordPolicy) Verify(plaintext, hash string) bool {
	for _, scheme := range p.schemes {
		if scheme.Verify(plaintext, hash) {
			return true
		}
	}
	return false
}

// LengthCompositionPolicy is the default StrengthPolicy: length first, then
// at least one lowercase letter, one uppercase letter and one digit.
type LengthCompositionPolicy struct {
	MinLength int
}

// Validate implements StrengthPolicy.
func (p LengthCompositionPolicy) Validate(candidate string) error {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = 8
	}

	if len([]rune(candidate)) < minLen {
		return ErrPasswordTooShort.Clone().WithMetadata(map[string]any{
			"min_length": minLen,
		})
	}

	var lowers, uppers, digits int
	for _, ch := range candidate {
		switch {
		case unicode.IsLower(ch):
			lowers++
		case unicode.IsUpper(ch):
			uppers++
		case unicode.IsDigit(ch):
			digits++
		}
	}

	if lowers == 0 || uppers == 0 || digits == 0 {
		return ErrPasswordTooSimple
	}

	return nil
}

// BcryptScheme hashes with bcrypt. This is the preferred scheme.
type BcryptScheme struct {
	// Cost defaults to bcrypt.DefaultCost when zero.
	Cost int
}

// Name implements HashScheme.
func (BcryptScheme) Name() string { return "bcrypt" }

// Hash implements HashScheme.
func (s BcryptScheme) Hash(plaintext string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	return string(h), err
}

// Verify implements HashScheme.
func (BcryptScheme) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

const (
	pbkdf2Prefix     = "pbkdf2_sha256"
	pbkdf2Iterations = 260000
	pbkdf2SaltBytes  = 16
	pbkdf2KeyBytes   = 32
)

// PBKDF2Scheme hashes with PBKDF2-SHA256 using the
// "pbkdf2_sha256$iterations$salt$key" encoding. Kept in the default scheme
// list so credentials hashed before the bcrypt migration keep verifying.
type PBKDF2Scheme struct{}

// Name implements HashScheme.
func (PBKDF2Scheme) Name() string { return pbkdf2Prefix }

// Hash implements HashScheme.
func (PBKDF2Scheme) Hash(plaintext string) (string, error) {
	salt := make([]byte, pbkdf2SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := pbkdf2.Key([]byte(plaintext), salt, pbkdf2Iterations, pbkdf2KeyBytes, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		pbkdf2Prefix,
		pbkdf2Iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify implements HashScheme.
func (PBKDF2Scheme) Verify(plaintext, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Prefix {
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}

	want, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(plaintext), salt, iterations, len(want), sha256.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}
