package auth

import (
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/id"
)

const (
	tokenIssuer   = "inkwell-server"
	tokenAudience = "inkwell-client"

	// KeySize is the PASETO v4 symmetric key length in bytes.
	KeySize = 32
)

// TokenService issues and verifies v4.local access tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	duration time.Duration
	now      func() time.Time
}

// NewTokenService creates a TokenService from a 32 byte key.
func NewTokenService(key []byte, accessDuration time.Duration) (*TokenService, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", KeySize, len(key))
	}
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("create token key: %w", err)
	}
	return &TokenService{key: k, duration: accessDuration, now: time.Now}, nil
}

// Issue creates an access token for user and returns it with its expiry.
func (s *TokenService) Issue(user *domain.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.duration)

	jti, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", time.Time{}, err
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(exp)
	token.SetJti(jti)
	//nolint:errcheck // Set only fails for values that cannot be marshalled
	_ = token.Set("user_id", user.ID)
	//nolint:errcheck // see above
	_ = token.Set("email", user.Email)

	return token.V4Encrypt(s.key, nil), exp, nil
}

// Verify decrypts and validates a token. Any failure is Unauthorized.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.key, tokenString, nil)
	if err != nil {
		return nil, errors.Unauthorized("invalid or expired token").WithCause(err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, errors.Unauthorized("malformed token claims").WithCause(err)
	}
	return &claims, nil
}

// Duration is the lifetime of issued tokens.
func (s *TokenService) Duration() time.Duration { return s.duration }
