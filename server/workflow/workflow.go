// Package workflow owns the per-session submission state machine: the login
// gate, the attempt quota, the prompt/image history, and the hand-off of a
// selected entry to the notification sender.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/promptjam/promptjam/plugin/imagegen"
	"github.com/promptjam/promptjam/plugin/mailer"
	werrors "github.com/promptjam/promptjam/internal/errors"
	"github.com/promptjam/promptjam/server/session"
)

// promptKeywords is the gate every prompt must pass before a quota unit can
// be spent on it.
var promptKeywords = []string{"image", "draw", "picture"}

// Service orchestrates the submission workflow. All collaborators are
// injected at construction; nothing is looked up from globals at request
// time.
type Service struct {
	store     *session.Store
	generator imagegen.Generator
	sender    mailer.Sender
	teams     map[string]struct{}
}

// NewService creates the workflow service with the given allow-listed team
// identities. Identities are normalized before the lookup set is built.
func NewService(store *session.Store, generator imagegen.Generator, sender mailer.Sender, teams []string) *Service {
	allow := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		allow[NormalizeIdentity(t)] = struct{}{}
	}
	return &Service{
		store:     store,
		generator: generator,
		sender:    sender,
		teams:     allow,
	}
}

// NormalizeIdentity trims surrounding whitespace and lowercases an identity
// string.
func NormalizeIdentity(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Authenticate checks the identity against the allow-list and, on success,
// creates a fresh session with the full attempt quota, overwriting any state
// a previous login left behind.
func (s *Service) Authenticate(ctx context.Context, rawIdentity string) (*session.Session, error) {
	identity := NormalizeIdentity(rawIdentity)
	if _, ok := s.teams[identity]; !ok {
		return nil, werrors.InvalidIdentity("invalid team name")
	}

	sess := session.New(identity)
	s.store.Put(sess)

	slog.Info("team authenticated", "team", identity, "session_id", sess.ID)
	return sess, nil
}

// Snapshot returns a read-only copy of the session for rendering.
func (s *Service) Snapshot(_ context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, werrors.SessionNotFound("no active session")
	}
	return sess, nil
}

// Generate validates the prompt, spends a quota unit, and records the
// resulting image. Quota is charged only when the remote call succeeds, and
// the history append and the quota decrement commit together or not at all.
func (s *Service) Generate(ctx context.Context, sessionID, rawPrompt string) (string, error) {
	var imageURL string

	err := s.store.Update(sessionID, func(sess *session.Session) error {
		if sess.AttemptsRemaining <= 0 {
			return werrors.QuotaExhausted("all 3 prompt attempts used")
		}

		prompt := strings.TrimSpace(rawPrompt)
		if !promptMentionsImage(prompt) {
			return werrors.InvalidPrompt("prompt must include one of the keywords: image, draw, or picture")
		}

		url, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return werrors.GenerationFailure("image generation error", err)
		}

		sess.RecordGeneration(prompt, url)
		imageURL = url

		slog.Info("image generated",
			"team", sess.Team,
			"session_id", sess.ID,
			"attempts_remaining", sess.AttemptsRemaining)
		return nil
	})
	if err != nil {
		return "", mapStoreErr(err)
	}
	return imageURL, nil
}

// SubmitSelection forwards the history entry at index to the notification
// sender. On successful delivery the session is cleared and the team name is
// returned for the confirmation surface; on failure the session is left
// intact so the selection can be retried.
func (s *Service) SubmitSelection(ctx context.Context, sessionID string, index int) (string, error) {
	var team string

	err := s.store.Update(sessionID, func(sess *session.Session) error {
		prompt, imageURL, ok := sess.Entry(index)
		if !ok {
			return werrors.SelectionOutOfRange(index, len(sess.Images))
		}

		if err := s.sender.Send(ctx, mailer.Submission{
			Team:     sess.Team,
			Prompt:   prompt,
			ImageURL: imageURL,
		}); err != nil {
			var wfErr *werrors.WorkflowError
			if errors.As(err, &wfErr) {
				return wfErr
			}
			return werrors.Notification(werrors.CodeNotificationGeneric, "failed to send submission", err)
		}

		team = sess.Team
		return nil
	})
	if err != nil {
		return "", mapStoreErr(err)
	}

	s.store.Delete(sessionID)
	slog.Info("submission delivered, session cleared", "team", team, "session_id", sessionID)
	return team, nil
}

// promptMentionsImage applies the case-insensitive keyword gate.
func promptMentionsImage(prompt string) bool {
	lowered := strings.ToLower(prompt)
	for _, kw := range promptKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// mapStoreErr converts store-level lookup failures into the workflow
// taxonomy, passing classified errors through untouched.
func mapStoreErr(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return werrors.SessionNotFound("no active session")
	}
	return err
}
