package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timekeep/timesheet-share/internal/access"
)

func runSession(t *testing.T, mw echo.MiddlewareFunc, cookie *http.Cookie) (access.SessionStore, *httptest.ResponseRecorder) {
	t.Helper()

	var store access.SessionStore
	h := mw(func(c echo.Context) error {
		s, ok := c.Get(SessionContextKey).(access.SessionStore)
		require.True(t, ok, "handler must see a session store")
		store = s
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(echo.New().NewContext(req, rec)))
	return store, rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSessionAssignsCookie(t *testing.T) {
	mw := Session(nil, time.Hour)

	_, rec := runSession(t, mw, nil)
	cookie := sessionCookie(t, rec)
	assert.Len(t, cookie.Value, 32)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestSessionReusesExistingCookie(t *testing.T) {
	mw := Session(nil, time.Hour)

	store1, rec := runSession(t, mw, nil)
	cookie := sessionCookie(t, rec)

	store2, rec2 := runSession(t, mw, cookie)
	assert.Empty(t, rec2.Result().Cookies(), "known sessions get no new cookie")

	// same session, same store: grants written earlier stay visible
	require.NoError(t, store1.Set(context.Background(), "k", "1"))
	has, err := store2.Has(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSessionSeparatesVisitors(t *testing.T) {
	mw := Session(nil, time.Hour)

	store1, _ := runSession(t, mw, nil)
	store2, _ := runSession(t, mw, nil)

	require.NoError(t, store1.Set(context.Background(), "k", "1"))
	has, err := store2.Has(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, has)
}
