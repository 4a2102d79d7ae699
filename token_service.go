package authkit

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPurpose binds a token to exactly one operation so confirmation tokens
// cannot be replayed against the reset endpoint and vice versa.
type TokenPurpose string

const (
	// PurposeConfirmAccount marks account confirmation tokens.
	PurposeConfirmAccount TokenPurpose = "confirm-account"
	// PurposeResetPassword marks password reset tokens.
	PurposeResetPassword TokenPurpose = "reset-password"
)

// tokenClaims is the single claim carried by lifecycle tokens: subject id,
// purpose and expiry. The compact JWT serialization is URL-safe, so tokens
// survive a round trip through a link query parameter.
type tokenClaims struct {
	jwt.RegisteredClaims
	Purpose TokenPurpose `json:"prp"`
}

// TokenService issues and verifies the signed, expiring tokens used for
// stateless confirm/reset links. It is stateless and safe for unlimited
// concurrent use.
type TokenService struct {
	signingKey []byte
	ttls       map[TokenPurpose]time.Duration
	logger     Logger
	now        func() time.Time
}

// NewTokenService builds a TokenService keyed by the process-wide signing
// secret. The secret length is enforced by Config.Resolve; callers
// constructing a TokenService directly get the same check here.
func NewTokenService(signingKey []byte, confirmTTL, resetTTL time.Duration, logger Logger) (*TokenService, error) {
	if len(signingKey) < minSigningSecretBytes {
		return nil, ErrConfigInvalid.Clone().WithMetadata(map[string]any{
			"reason":    "signing key shorter than 32 bytes",
			"min_bytes": minSigningSecretBytes,
		})
	}

	if logger == nil {
		logger = defLogger{}
	}

	return &TokenService{
		signingKey: signingKey,
		ttls: map[TokenPurpose]time.Duration{
			PurposeConfirmAccount: confirmTTL,
			PurposeResetPassword:  resetTTL,
		},
		logger: logger,
		now:    time.Now,
	}, nil
}

// WithClock overrides the time source, useful for expiry tests.
func (ts *TokenService) WithClock(clock func() time.Time) *TokenService {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// TTL returns the configured time-to-live for a purpose.
func (ts *TokenService) TTL(purpose TokenPurpose) time.Duration {
	return ts.ttls[purpose]
}

// Issue signs a token carrying the subject id, the purpose and an absolute
// expiry of now plus the purpose's TTL.
func (ts *TokenService) Issue(subjectID int64, purpose TokenPurpose) (string, error) {
	now := ts.now()

	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttls[purpose])),
		},
		Purpose: purpose,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.signingKey)
}

// Verify parses a token and returns its subject id. It fails closed: a bad
// signature, malformed payload, mismatched purpose or past expiry all yield
// the same (0, false) outcome, so callers cannot tell which check failed.
func (ts *TokenService) Verify(token string, expected TokenPurpose) (int64, bool) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return ts.signingKey, nil
	}, jwt.WithTimeFunc(ts.now), jwt.WithExpirationRequired())

	if err != nil || !parsed.Valid {
		return 0, false
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Purpose != expected {
		return 0, false
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}
