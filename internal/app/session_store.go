package app

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// SessionStore keeps at most one live form session per chat. Sessions expire
// after a period of inactivity.
type SessionStore struct {
	cache *gocache.Cache
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{cache: gocache.New(ttl, ttl/2)}
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Put makes s the live session of its chat, replacing any previous one.
func (st *SessionStore) Put(s *Session) {
	st.cache.SetDefault(chatKey(s.ChatID), s)
}

// Current returns the chat's live session and extends its lifetime.
func (st *SessionStore) Current(chatID int64) (*Session, error) {
	v, ok := st.cache.Get(chatKey(chatID))
	if !ok {
		return nil, ErrNoSession
	}
	s := v.(*Session)
	st.cache.SetDefault(chatKey(chatID), s)
	return s, nil
}

// Get returns the live session only if it is the one identified by
// sessionID. A reference to any other session (an old message, an expired
// form) is stale and must not be resumed.
func (st *SessionStore) Get(chatID int64, sessionID string) (*Session, error) {
	s, err := st.Current(chatID)
	if err != nil {
		return nil, ErrSessionStale
	}
	if s.ID != sessionID {
		return nil, ErrSessionStale
	}
	return s, nil
}

// Discard ends the chat's session.
func (st *SessionStore) Discard(chatID int64) {
	st.cache.Delete(chatKey(chatID))
}
