// Package session is the client-side half of authentication: it keeps the
// issued token in durable storage and decides which dashboard view to show.
//
// The token is decoded without verifying its signature. The result only
// steers navigation; the server re-verifies the token on every protected
// request.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"study_dashboard/internal/model"
)

// State of the guard.
type State int

const (
	Unauthenticated State = iota
	Checking
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNoToken     = errors.New("no stored token")
	ErrDecode      = errors.New("token could not be decoded")
	ErrExpired     = errors.New("token has expired")
	ErrUnknownRole = errors.New("token carries an unknown role")
)

// Claims are the token fields the client reads.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Decision is the outcome of a guard check.
type Decision struct {
	State    State
	Role     string
	Username string
	Redirect string
	// Reason is set when the check ended Unauthenticated.
	Reason error
}

// Session owns the stored token for one client. Create it with Init when the
// client starts and call Teardown on logout.
type Session struct {
	store Store
	now   func() time.Time
	state State
}

// Init binds a session to store. The guard starts in Checking until the
// first Resolve.
func Init(store Store) *Session {
	return &Session{store: store, now: time.Now, state: Checking}
}

// State reports the result of the last Resolve, Save or Teardown.
func (s *Session) State() State { return s.state }

// Save persists a freshly issued token and the role the server reported.
func (s *Session) Save(token, role string) error {
	if err := s.store.Set(KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if role == "" {
		// A token without a role must not leave a stale role behind.
		if err := s.store.Delete(KeyRole); err != nil {
			return fmt.Errorf("clear role: %w", err)
		}
	} else if err := s.store.Set(KeyRole, role); err != nil {
		return fmt.Errorf("store role: %w", err)
	}
	s.state = Checking
	return nil
}

// Token returns the stored token, if any.
func (s *Session) Token() (string, bool, error) {
	return s.store.Get(KeyToken)
}

// Resolve runs the guard: read the token, decode it and map its role to a
// dashboard path. Every failure lands on the login entry point.
func (s *Session) Resolve() Decision {
	s.state = Checking

	token, ok, err := s.store.Get(KeyToken)
	if err != nil {
		return s.deny(fmt.Errorf("%w: %v", ErrDecode, err))
	}
	if !ok || token == "" {
		return s.deny(ErrNoToken)
	}

	claims, err := Decode(token)
	if err != nil {
		return s.deny(err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(s.now()) {
		return s.deny(ErrExpired)
	}

	path, known := model.DashboardPath(claims.Role)
	if !known {
		return s.deny(ErrUnknownRole)
	}

	s.state = Authenticated
	return Decision{
		State:    Authenticated,
		Role:     claims.Role,
		Username: claims.Username,
		Redirect: path,
	}
}

// Teardown clears the stored token and role. The token itself stays valid
// on the server until it expires.
func (s *Session) Teardown() error {
	if err := s.store.Delete(KeyToken, KeyRole); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.state = Unauthenticated
	return nil
}

func (s *Session) deny(reason error) Decision {
	s.state = Unauthenticated
	return Decision{State: Unauthenticated, Redirect: model.LoginPath, Reason: reason}
}

// Decode parses token claims without checking the signature.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return claims, nil
}
