package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/timekeep/timesheet-share/internal/access"
)

// SessionContextKey is the context key the per-request SessionStore is
// stored under.
const SessionContextKey = "session"

const sessionCookieName = "share_session"

// Session assigns every visitor a browser session via an opaque cookie and
// places a matching access.SessionStore into the request context. With a
// Redis client the store is shared across instances and expires with ttl;
// without one it degrades to an in-process registry.
func Session(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	memory := access.NewMemorySessionRegistry()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				sid = cookie.Value
			}
			if sid == "" {
				id, err := newSessionID()
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
				}
				sid = id
				c.SetCookie(&http.Cookie{
					Name:     sessionCookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(ttl / time.Second),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			var store access.SessionStore
			if rdb != nil {
				store = access.NewRedisSessionStore(rdb, sid, ttl)
			} else {
				store = memory.Session(sid)
			}
			c.Set(SessionContextKey, store)
			return next(c)
		}
	}
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
