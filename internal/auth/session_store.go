package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const sessionKeyPrefix = "session:"

// Session value keys shared by the web handlers.
const (
	SessionAccountID = "account_id"
	SessionUsername  = "username"
	SessionIsAdmin   = "is_admin"
)

// SessionBackend is the key/value store holding server-side session records.
type SessionBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisSessionStore keeps session values server-side and sends only a signed session ID in the cookie.
type RedisSessionStore struct {
	backend    SessionBackend
	codecs     []securecookie.Codec
	serializer securecookie.GobEncoder
	Options    *sessions.Options
}

// Ensure RedisSessionStore implements sessions.Store
var _ sessions.Store = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a store. keyPairs are securecookie hash/block key pairs for the cookie.
func NewRedisSessionStore(backend SessionBackend, maxAge int, keyPairs ...[]byte) *RedisSessionStore {
	s := &RedisSessionStore{
		backend: backend,
		codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
	s.MaxAge(maxAge)
	return s
}

// MaxAge sets the lifetime of both the cookie and the server-side record.
func (s *RedisSessionStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get returns the session for this request, cached in the request registry.
func (s *RedisSessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie or returns a fresh one.
// A cookie that fails to decode or points to an expired record yields a new session without error.
func (s *RedisSessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.codecs...); err != nil {
		return session, nil
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	if !found {
		// Never resurrect an ID whose record is gone.
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session record and writes the cookie. A negative MaxAge deletes both.
func (s *RedisSessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.backend.Delete(r.Context(), sessionKeyPrefix+session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := s.store(r.Context(), session); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisSessionStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	data, err := s.backend.Get(ctx, sessionKeyPrefix+session.ID)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return false, nil
	}
	if err := s.serializer.Deserialize(data, &session.Values); err != nil {
		return false, fmt.Errorf("decode session: %w", err)
	}
	return true, nil
}

func (s *RedisSessionStore) store(ctx context.Context, session *sessions.Session) error {
	data, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if err := s.backend.Set(ctx, sessionKeyPrefix+session.ID, data, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
