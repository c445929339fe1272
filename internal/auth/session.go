package auth

import "time"

// SessionTTL is how long a stored session is trusted, whatever the token's own expiry.
const SessionTTL = 5 * time.Minute

// Session is a token stored by the client.
type Session struct {
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewSession starts a session for token at now.
func NewSession(token string, now time.Time) Session {
	return Session{Token: token, IssuedAt: now, ExpiresAt: now.Add(SessionTTL)}
}

// IsExpired reports whether s must be re-authenticated at now.
// A session without a token is always expired.
func IsExpired(s Session, now time.Time) bool {
	if s.Token == "" || s.IssuedAt.IsZero() {
		return true
	}
	return !now.Before(s.IssuedAt.Add(SessionTTL))
}
