// Package auth orchestrates credential verification and token issuance. It
// is the single entry point the HTTP layer calls for register, login,
// refresh and access-token verification.
package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/teamforge/auth-service/token"
	"github.com/teamforge/auth-service/users"
)

const (
	// DefaultAccessTTL is the access-token lifetime when none is configured.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the refresh-token lifetime when none is configured.
	DefaultRefreshTTL = 7 * 24 * time.Hour
	// DefaultRememberMeTTL is the refresh-token lifetime under "remember me".
	DefaultRememberMeTTL = 30 * 24 * time.Hour
)

// TTLConfig carries the token lifetimes the service issues with. Zero values
// fall back to the defaults.
type TTLConfig struct {
	Access     time.Duration
	Refresh    time.Duration
	RememberMe time.Duration
}

// RegisterInput is the payload for Register.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Timezone string `json:"timezone"`
}

// LoginInput is the payload for Login.
type LoginInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Timezone   string `json:"timezone"`
	RememberMe bool   `json:"rememberMe"`
}

// TokenPair is an access/refresh token pair issued for one session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // access-token lifetime in seconds
}

// AuthResult is the outcome of a successful Register or Login.
type AuthResult struct {
	User   *users.User `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}

// Service is the authentication facade. Sessions are stateless: a session is
// the uuid minted at register/login and carried through every token pair of
// a rotation chain; it terminates only when its refresh token expires.
type Service struct {
	users   users.UserRepo
	codec   *token.Codec
	hasher  *users.PasswordHasher
	ttl     TTLConfig
	nowFunc func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// NewService creates the authentication facade.
func NewService(userRepo users.UserRepo, codec *token.Codec, hasher *users.PasswordHasher, ttl TTLConfig, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] user repo is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] token codec is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewService] password hasher is required")
	}

	s := &Service{
		users:   userRepo,
		codec:   codec,
		hasher:  hasher,
		ttl:     ttl,
		nowFunc: time.Now,
	}
	if s.ttl.Access <= 0 {
		s.ttl.Access = DefaultAccessTTL
	}
	if s.ttl.Refresh <= 0 {
		s.ttl.Refresh = DefaultRefreshTTL
	}
	if s.ttl.RememberMe <= 0 {
		s.ttl.RememberMe = DefaultRememberMeTTL
	}

	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates a new account and opens a fresh session for it. It fails
// with ErrEmailExists when an active account already holds the email (any
// case variant) and with *ValidationError for malformed input.
func (s *Service) Register(input RegisterInput) (*AuthResult, error) {
	if verr := validateRegisterInput(input); verr != nil {
		return nil, verr
	}

	email := users.NormalizeEmail(input.Email)

	existing, err := s.users.GetByEmail(email)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.Register] GetByEmail")
	}
	if existing != nil && existing.Active {
		return nil, ErrEmailExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] Hash")
	}

	role, err := users.ParseRole(input.Role)
	if err != nil {
		// validateRegisterInput already vetted the role
		return nil, errors.Wrap(err, "[Service.Register] ParseRole")
	}

	now := s.nowFunc()
	created, err := s.users.Create(&users.User{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Timezone:     input.Timezone,
		Active:       true,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] Create")
	}

	tokens, err := s.issueTokens(created, uuid.New().String(), 1, s.ttl.Refresh)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] issueTokens")
	}

	s.recordPresence(created.ID, now)
	created.LastSeenAt = now

	return &AuthResult{User: publicView(created), Tokens: tokens}, nil
}

// Login verifies credentials and opens a new session. Login never reuses a
// session: a fresh session id is minted even for an account that registered
// moments earlier. Unknown email, inactive account and wrong password all
// fail with the same ErrAuthenticationFailed.
func (s *Service) Login(input LoginInput) (*AuthResult, error) {
	if verr := validateLoginInput(input); verr != nil {
		return nil, verr
	}

	user, err := s.users.GetByEmail(users.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}
	if !user.Active {
		return nil, ErrAuthenticationFailed
	}
	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrAuthenticationFailed
	}

	if input.Timezone != "" && input.Timezone != user.Timezone {
		user.Timezone = input.Timezone
		if user, err = s.users.Update(user); err != nil {
			return nil, errors.Wrap(err, "[Service.Login] Update timezone")
		}
	}

	refreshTTL := s.ttl.Refresh
	if input.RememberMe {
		refreshTTL = s.ttl.RememberMe
	}

	tokens, err := s.issueTokens(user, uuid.New().String(), 1, refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] issueTokens")
	}

	now := s.nowFunc()
	s.recordPresence(user.ID, now)
	user.LastSeenAt = now

	return &AuthResult{User: publicView(user), Tokens: tokens}, nil
}

// Refresh rotates a refresh token into a new access+refresh pair carrying
// the same session id. It fails with ErrInvalidRefreshToken on a bad
// signature, malformed claims, or a user that is gone or inactive.
//
// Rotation is caller-sequenced per session: two concurrent refreshes of the
// same session race, and the outcome is undefined.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRefreshToken, err.Error())
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, errors.Wrap(err, "[Service.Refresh] GetByID")
	}
	if !user.Active {
		return nil, ErrInvalidRefreshToken
	}

	tokens, err := s.issueTokens(user, claims.SessionID, claims.TokenVersion+1, s.ttl.Refresh)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] issueTokens")
	}

	s.recordPresence(user.ID, s.nowFunc())

	return &tokens, nil
}

// VerifyAccess validates an access token for the request guards. Expired and
// tampered tokens are reported identically as ErrInvalidToken.
func (s *Service) VerifyAccess(accessToken string) (*token.AccessClaims, error) {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	return claims, nil
}

// Profile returns the current record of an authenticated user. A token
// whose user has vanished or been deactivated is treated as invalid.
func (s *Service) Profile(userID string) (*users.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, errors.Wrap(err, "[Service.Profile] GetByID")
	}
	if !user.Active {
		return nil, ErrInvalidToken
	}
	return publicView(user), nil
}

// publicView strips server-side fields from a user record before it leaves
// the facade.
func publicView(u *users.User) *users.User {
	copied := *u
	copied.PasswordHash = ""
	return &copied
}

// Logout acknowledges a logout. There is no server-side revocation store:
// issued tokens stay valid until their natural expiry, and the session ends
// when its refresh token does.
func (s *Service) Logout(sessionID string) error {
	_ = sessionID
	return nil
}

func (s *Service) issueTokens(user *users.User, sessionID string, tokenVersion int, refreshTTL time.Duration) (TokenPair, error) {
	accessToken, err := s.codec.IssueAccess(token.AccessClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
		Timezone:  user.Timezone,
		SessionID: sessionID,
	}, s.ttl.Access)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "IssueAccess")
	}

	refreshToken, err := s.codec.IssueRefresh(token.RefreshClaims{
		UserID:       user.ID,
		SessionID:    sessionID,
		TokenVersion: tokenVersion,
	}, refreshTTL)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "IssueRefresh")
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.ttl.Access.Seconds()),
	}, nil
}

// recordPresence updates the last-seen timestamp. Presence is advisory, so a
// store failure here never fails the authentication call.
func (s *Service) recordPresence(userID string, at time.Time) {
	_ = s.users.UpdateLastSeen(userID, at)
}
