package model

import "time"

// Session is the clinician's current login as seen by the console.
type Session struct {
	Token          string
	ExpiresAt      time.Time
	NotifiedExpiry bool
}

func (s *Session) Active() bool {
	return s.Token != ""
}

// Reset clears the token and re-opens the expiry notice debounce.
func (s *Session) Reset() {
	s.Token = ""
	s.ExpiresAt = time.Time{}
	s.NotifiedExpiry = false
}
