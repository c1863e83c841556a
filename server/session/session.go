// Package session holds the per-team interaction state: the attempt quota,
// the prompt/image history, and the store that keeps both consistent under
// concurrent requests.
package session

import (
	"time"

	"github.com/google/uuid"
)

// MaxAttempts is the number of successful generations permitted per session.
const MaxAttempts = 3

// Session represents one authenticated team's interaction window.
//
// Invariants, enforced by the store on every commit:
//   - len(Prompts) == len(Images)
//   - AttemptsRemaining + len(Prompts) == MaxAttempts
//   - Team never changes after creation
type Session struct {
	ID                string    `json:"id"`
	Team              string    `json:"team"`
	AttemptsRemaining int       `json:"attempts_remaining"`
	Prompts           []string  `json:"prompts"`
	Images            []string  `json:"images"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// New creates a fresh session for the given (already normalized) team
// identity with the full attempt quota and empty histories.
func New(team string) *Session {
	now := time.Now()
	return &Session{
		ID:                uuid.New().String(),
		Team:              team,
		AttemptsRemaining: MaxAttempts,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// RecordGeneration appends a successful generation to the history and charges
// one quota unit. The two mutations always happen together.
func (s *Session) RecordGeneration(prompt, imageURL string) {
	s.Prompts = append(s.Prompts, prompt)
	s.Images = append(s.Images, imageURL)
	s.AttemptsRemaining--
}

// Entry returns the prompt/image pair at index i, reporting whether the index
// is within the history.
func (s *Session) Entry(i int) (prompt, imageURL string, ok bool) {
	if i < 0 || i >= len(s.Images) {
		return "", "", false
	}
	return s.Prompts[i], s.Images[i], true
}

// wellFormed reports whether the session satisfies its invariants. The store
// refuses to serve sessions that fail this check.
func (s *Session) wellFormed() bool {
	if s.ID == "" || s.Team == "" {
		return false
	}
	if len(s.Prompts) != len(s.Images) {
		return false
	}
	return s.AttemptsRemaining >= 0 && s.AttemptsRemaining+len(s.Prompts) == MaxAttempts
}

// clone returns a deep copy. Updates run against a clone so a failed update
// never leaves a partial mutation behind.
func (s *Session) clone() *Session {
	dup := *s
	dup.Prompts = append([]string(nil), s.Prompts...)
	dup.Images = append([]string(nil), s.Images...)
	return &dup
}
