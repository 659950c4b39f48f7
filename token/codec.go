package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrTokenExpired is returned when a token's signature verifies but its
	// expiry has elapsed. Expiry is the only failure reported this way.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure: bad
	// signature, wrong signing method, malformed token, or a claim set that
	// does not match the expected schema.
	ErrTokenInvalid = errors.New("token invalid")
)

// Codec issues and verifies access and refresh tokens against two
// independent signers.
type Codec struct {
	access  Signer
	refresh Signer
	nowFunc func() time.Time
}

// CodecOption defines a function type to modify the Codec instance.
type CodecOption func(*Codec)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec creates a Codec from the access and refresh signers.
func NewCodec(access, refresh Signer, options ...CodecOption) *Codec {
	c := &Codec{
		access:  access,
		refresh: refresh,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// IssueAccess signs an access token with the given ttl. IssuedAt, ExpiresAt
// and a fresh token ID are set by the codec.
func (c *Codec) IssueAccess(claims AccessClaims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = c.registeredClaims(ttl)
	signed, err := c.access.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Codec.IssueAccess")
	}
	return signed, nil
}

// IssueRefresh signs a refresh token with the given ttl.
func (c *Codec) IssueRefresh(claims RefreshClaims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = c.registeredClaims(ttl)
	signed, err := c.refresh.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Codec.IssueRefresh")
	}
	return signed, nil
}

// VerifyAccess parses and validates an access token, returning its claims.
// Fails with ErrTokenExpired or ErrTokenInvalid.
func (c *Codec) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(raw, claims, c.access); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.SessionID == "" || claims.Email == "" || claims.Role == "" {
		return nil, errors.Wrap(ErrTokenInvalid, "access claims incomplete")
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token, returning its claims.
// Fails with ErrTokenExpired or ErrTokenInvalid.
func (c *Codec) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(raw, claims, c.refresh); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.SessionID == "" || claims.TokenVersion < 1 {
		return nil, errors.Wrap(ErrTokenInvalid, "refresh claims incomplete")
	}
	return claims, nil
}

func (c *Codec) verify(raw string, claims jwt.Claims, signer Signer) error {
	parsed, err := jwt.ParseWithClaims(raw, claims, signer.GetVerificationKey,
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(ErrTokenInvalid, err.Error())
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}

func (c *Codec) registeredClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := c.nowFunc()
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}
}
