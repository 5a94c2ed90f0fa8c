package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

var ErrNoSessionCookie = errors.New("session cookie missing")

// CookieManager signs the opaque session token into a host-only cookie.
type CookieManager struct {
	name   string
	secure bool
	codec  *securecookie.SecureCookie
}

func NewCookieManager(name, secret string, secure bool, ttl time.Duration) *CookieManager {
	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(int(ttl.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &CookieManager{name: name, secure: secure, codec: codec}
}

func (m *CookieManager) Name() string {
	return m.name
}

func (m *CookieManager) Set(w http.ResponseWriter, token string, expiresAt time.Time) error {
	encoded, err := m.codec.Encode(m.name, token)
	if err != nil {
		return fmt.Errorf("encode session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *CookieManager) Read(r *http.Request) (string, error) {
	c, err := r.Cookie(m.name)
	if err != nil {
		return "", ErrNoSessionCookie
	}
	var token string
	if err := m.codec.Decode(m.name, c.Value, &token); err != nil {
		return "", fmt.Errorf("decode session cookie: %w", err)
	}
	return token, nil
}

func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
