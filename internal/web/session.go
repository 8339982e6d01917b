package web

import (
	"encoding/gob"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"taskdesk/internal/auth"
	"taskdesk/internal/model"
)

// SessionCookieName names the cookie carrying the session.
const SessionCookieName = "taskdesk_session"

const (
	sessionContextKey = "web_session"
	userContextKey    = "web_user"
)

// Flash kinds rendered by the layout.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// SessionUser is the identity cached in the session. IsAdmin is for templates only.
type SessionUser struct {
	ID       uint
	Username string
	IsAdmin  bool
}

func init() {
	gob.Register(Flash{})
}

// loadSession attaches the request session to the context. A broken backend fails the request.
func loadSession(store sessions.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, err := store.Get(c.Request(), SessionCookieName)
			if err != nil {
				if session == nil || !staleCookie(err) {
					return err
				}
				session.ID = ""
			}
			c.Set(sessionContextKey, session)
			if user, ok := userFromSession(session); ok {
				c.Set(userContextKey, user)
			}
			return next(c)
		}
	}
}

// staleCookie reports errors that only mean the cookie no longer maps to a session.
func staleCookie(err error) bool {
	var scErr securecookie.Error
	if errors.As(err, &scErr) && scErr.IsDecode() {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

func userFromSession(session *sessions.Session) (*SessionUser, bool) {
	id, ok := session.Values[auth.SessionAccountID].(uint)
	if !ok || id == 0 {
		return nil, false
	}
	username, _ := session.Values[auth.SessionUsername].(string)
	isAdmin, _ := session.Values[auth.SessionIsAdmin].(bool)
	return &SessionUser{ID: id, Username: username, IsAdmin: isAdmin}, true
}

func currentSession(c echo.Context) *sessions.Session {
	session, _ := c.Get(sessionContextKey).(*sessions.Session)
	return session
}

func currentUser(c echo.Context) *SessionUser {
	user, _ := c.Get(userContextKey).(*SessionUser)
	return user
}

func addFlash(c echo.Context, kind, message string) {
	if session := currentSession(c); session != nil {
		session.AddFlash(Flash{Kind: kind, Message: message})
	}
}

func saveSession(c echo.Context) error {
	session := currentSession(c)
	if session == nil {
		return nil
	}
	return session.Save(c.Request(), c.Response())
}

func popFlashes(c echo.Context) []Flash {
	session := currentSession(c)
	if session == nil {
		return nil
	}
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}

// redirect saves pending session changes and issues a 303.
func redirect(c echo.Context, to string) error {
	if err := saveSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// startSession replaces any existing session with a fresh one bound to account.
func startSession(c echo.Context, store sessions.Store, account *model.Account) error {
	if err := endSession(c); err != nil {
		return err
	}
	fresh, err := freshSession(c, store)
	if err != nil {
		return err
	}
	fresh.Values[auth.SessionAccountID] = account.ID
	fresh.Values[auth.SessionUsername] = account.Username
	fresh.Values[auth.SessionIsAdmin] = account.IsAdmin
	c.Set(userContextKey, &SessionUser{ID: account.ID, Username: account.Username, IsAdmin: account.IsAdmin})
	return nil
}

// freshSession swaps the context session for an empty one that will get a new ID on save.
func freshSession(c echo.Context, store sessions.Store) (*sessions.Session, error) {
	fresh, err := store.New(c.Request(), SessionCookieName)
	if err != nil && (fresh == nil || !staleCookie(err)) {
		return nil, err
	}
	// Drop whatever ID the old cookie carried.
	fresh.ID = ""
	fresh.IsNew = true
	fresh.Values = map[interface{}]interface{}{}
	c.Set(sessionContextKey, fresh)
	return fresh, nil
}

// endSession destroys the stored session and expires the cookie. New sessions are left alone.
func endSession(c echo.Context) error {
	session := currentSession(c)
	c.Set(userContextKey, nil)
	if session == nil || session.IsNew {
		return nil
	}
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(c.Request(), c.Response())
}
