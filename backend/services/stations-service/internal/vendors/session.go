package vendors

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"evmap/backend/services/stations-service/internal/models"
)

const (
	// AssumedTokenLifetime applies when the vendor token carries no readable expiry.
	AssumedTokenLifetime = 23 * time.Hour
	expirySkew           = 5 * time.Minute
)

// Session is a logged-in vendor identity.
type Session struct {
	Vendor    models.Brand
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewSession derives the expiry from the token's exp claim when the token is a
// JWT, otherwise assumes AssumedTokenLifetime. The signature is not verified:
// the vendor is the only party that can check it.
func NewSession(vendor models.Brand, token string, issuedAt time.Time) Session {
	s := Session{
		Vendor:    vendor,
		Token:     token,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(AssumedTokenLifetime),
	}
	if exp, ok := tokenExpiry(token); ok && exp.After(issuedAt) {
		s.ExpiresAt = exp
	}
	return s
}

// Valid reports whether the token can still be used at now.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && now.Add(expirySkew).Before(s.ExpiresAt)
}

// Authorization returns the header value for the session.
func (s Session) Authorization() string {
	return "Bearer " + s.Token
}

func tokenExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// LoginFunc obtains a fresh session.
type LoginFunc func(ctx context.Context) (Session, error)

// SessionKeeper holds the current session of one vendor.
type SessionKeeper struct {
	mu      sync.Mutex
	current Session
	now     func() time.Time
}

// NewSessionKeeper returns an empty keeper; now defaults to time.Now.
func NewSessionKeeper(now func() time.Time) *SessionKeeper {
	if now == nil {
		now = time.Now
	}
	return &SessionKeeper{now: now}
}

// Get returns the held session while valid, otherwise logs in and keeps the result.
func (k *SessionKeeper) Get(ctx context.Context, login LoginFunc) (Session, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current.Valid(k.now()) {
		return k.current, nil
	}
	s, err := login(ctx)
	if err != nil {
		return Session{}, err
	}
	k.current = s
	return s, nil
}

// Invalidate drops the held session, e.g. after the vendor rejected it.
func (k *SessionKeeper) Invalidate() {
	k.mu.Lock()
	k.current = Session{}
	k.mu.Unlock()
}
