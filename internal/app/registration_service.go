package app

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/retry"
)

// RegistrationService runs form sessions end to end: it opens them with a
// catalog snapshot, resolves references to them and submits them.
type RegistrationService struct {
	backend    registration.Backend
	catalog    *CatalogService
	sessions   *SessionStore
	submission *SubmissionService
	logger     *logrus.Entry
}

func NewRegistrationService(
	backend registration.Backend,
	catalog *CatalogService,
	sessions *SessionStore,
	submission *SubmissionService,
	logger *logrus.Entry,
) *RegistrationService {
	return &RegistrationService{
		backend:    backend,
		catalog:    catalog,
		sessions:   sessions,
		submission: submission,
		logger:     logger,
	}
}

// Start opens a fresh session for chatID, discarding any previous one. A
// catalog failure does not prevent the form from opening.
func (s *RegistrationService) Start(ctx context.Context, chatID int64) *Session {
	cat, err := s.catalog.Load(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", chatID).Warn("Starting session without catalog")
	}
	sess := NewSession(NewSessionID(), chatID, s.backend, cat, s.logger)
	s.sessions.Put(sess)
	s.logger.WithFields(logrus.Fields{
		"chat_id":    chatID,
		"session_id": sess.ID,
	}).Info("Registration session started")
	return sess
}

// Current returns the live session of chatID.
func (s *RegistrationService) Current(chatID int64) (*Session, error) {
	return s.sessions.Current(chatID)
}

// Resume returns the session a button press refers to. A reference to
// anything but the live session discards the chat's form entirely; the user
// starts over instead of continuing from partial state.
func (s *RegistrationService) Resume(chatID int64, sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(chatID, sessionID)
	if errors.Is(err, ErrSessionStale) {
		s.sessions.Discard(chatID)
		s.logger.WithFields(logrus.Fields{
			"chat_id":    chatID,
			"session_id": sessionID,
		}).Info("Stale session reference, form discarded")
	}
	return sess, err
}

// Discard ends the chat's session.
func (s *RegistrationService) Discard(chatID int64) {
	s.sessions.Discard(chatID)
}

// Submit posts the session's form. While it runs, further submits of the same
// session fail with ErrSubmissionInFlight. A successful submission ends the
// session; a failed one keeps everything the user entered.
func (s *RegistrationService) Submit(ctx context.Context, sess *Session, observer func(retry.Notice)) (registration.SubmissionOutcome, error) {
	if err := sess.beginSubmit(); err != nil {
		return registration.SubmissionOutcome{}, err
	}
	defer sess.endSubmit()

	outcome, err := s.submission.Submit(ctx, sess.Form(), retry.NewContext(observer))
	if err != nil {
		return outcome, err
	}
	if outcome.Succeeded() {
		s.sessions.Discard(sess.ChatID)
	}
	return outcome, nil
}
