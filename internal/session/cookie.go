package session

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionIDKey = "sid"

// CookieOptions configures the browser-session cookie
type CookieOptions struct {
	Name   string
	Secret string
	Secure bool
}

// Identity reads and issues the browser-session id. The cookie has no MaxAge,
// so it ends with the browser session; it carries nothing but the id.
type Identity struct {
	store sessions.Store
	name  string
}

// NewIdentity creates a cookie-backed identity
func NewIdentity(opts CookieOptions) *Identity {
	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	name := opts.Name
	if name == "" {
		name = "storefront_session"
	}
	return &Identity{store: store, name: name}
}

// ID returns the session id carried by r, if any.
func (i *Identity) ID(r *http.Request) (string, bool) {
	sess, err := i.store.Get(r, i.name)
	if err != nil {
		return "", false
	}
	id, ok := sess.Values[sessionIDKey].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Ensure returns the session id of r, issuing a new one in a cookie on w when
// the request has none or an unreadable one.
func (i *Identity) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := i.store.Get(r, i.name)
	if err == nil {
		if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
			return id, nil
		}
	}
	// A tampered or stale cookie yields a fresh session rather than an error.
	sess, err = i.store.New(r, i.name)
	if sess == nil {
		return "", err
	}

	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// Forget expires the session cookie
func (i *Identity) Forget(w http.ResponseWriter, r *http.Request) error {
	sess, _ := i.store.Get(r, i.name)
	if sess == nil {
		return nil
	}
	sess.Options.MaxAge = -1
	delete(sess.Values, sessionIDKey)
	return sess.Save(r, w)
}
