package middleware

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName is the name of the cookie that carries the session token.
	CookieName = "bizadmin.session"
	tokenKey   = "token"
)

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// NewCookieStore returns a gorilla cookie store whose signing and
// encryption keys are derived from secret.
func NewCookieStore(secret []byte, opts CookieOptions) (*sessions.CookieStore, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is empty")
	}
	hashKey, err := deriveKey(secret, "cookie-hash", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(secret, "cookie-block", 32)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		MaxAge:   int(opts.MaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

func deriveKey(secret []byte, info string, n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive %s key: %w", info, err)
	}
	return key, nil
}

// Sessions installs the cookie store on every request.
func Sessions(store sessions.Store) echo.MiddlewareFunc {
	return session.Middleware(store)
}

// TokenFrom extracts the session token from the session cookie, falling
// back to an Authorization bearer header. A cookie that fails to decode
// counts as absent.
func TokenFrom(c echo.Context) string {
	if sess, err := session.Get(CookieName, c); err == nil {
		if token, ok := sess.Values[tokenKey].(string); ok && token != "" {
			return token
		}
	}
	if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
		if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// SetToken writes token into the session cookie until expiresAt.
func SetToken(c echo.Context, token string, expiresAt time.Time) error {
	sess, err := session.Get(CookieName, c)
	if sess == nil {
		return fmt.Errorf("failed to open session cookie: %w", err)
	}
	opts := *sess.Options
	opts.MaxAge = int(time.Until(expiresAt).Seconds())
	if opts.MaxAge <= 0 {
		opts.MaxAge = -1
	}
	sess.Options = &opts
	sess.Values[tokenKey] = token
	return sess.Save(c.Request(), c.Response())
}

// ClearToken expires the session cookie.
func ClearToken(c echo.Context) error {
	sess, err := session.Get(CookieName, c)
	if sess == nil {
		return fmt.Errorf("failed to open session cookie: %w", err)
	}
	opts := *sess.Options
	opts.MaxAge = -1
	sess.Options = &opts
	delete(sess.Values, tokenKey)
	return sess.Save(c.Request(), c.Response())
}
