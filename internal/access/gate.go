// Package access implements the password gate in front of anonymous
// shared-report views and the session-scoped grant cache behind it.
package access

import (
	"context"
	"crypto/md5"
	"fmt"

	"github.com/timekeep/timesheet-share/internal/model"
	"github.com/timekeep/timesheet-share/internal/utils"
)

// SessionStore is the key-value capability the gate memoizes grants in.
// Implementations are scoped to one browser session; see session.go.
type SessionStore interface {
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string) error
}

// Gate decides whether a caller holding a share key and an optional
// password may view a share. It is a capability check, not authentication:
// no user identity is established, only a boolean grant tied to the
// browser session and the password hash in force at grant time.
type Gate struct {
	verify func(hash, plain string) bool
}

// NewGate builds a gate using bcrypt verification. A non-nil verify
// function overrides the algorithm (used by tests).
func NewGate(verify func(hash, plain string) bool) *Gate {
	if verify == nil {
		verify = utils.VerifyPassword
	}
	return &Gate{verify: verify}
}

// Verify grants access when the share has no password, when the session
// already holds a grant for this share and password hash, or when the
// supplied password verifies against the stored hash. Only a successful
// verification writes to the session; failed attempts leave it untouched.
func (g *Gate) Verify(ctx context.Context, share *model.SharedReport, password string, sess SessionStore) (bool, error) {
	if !share.HasPassword() {
		return true, nil
	}

	key := GrantKey(share)

	cached, err := sess.Has(ctx, key)
	if err != nil {
		return false, err
	}
	if cached {
		return true, nil
	}

	if password == "" || !g.verify(share.PasswordHash, password) {
		return false, nil
	}

	if err := sess.Set(ctx, key, "1"); err != nil {
		return false, err
	}
	return true, nil
}

// GrantKey derives the session key a grant is cached under. It includes a
// fingerprint of the stored password hash so that rotating or clearing the
// password invalidates every previously cached grant. md5 is used only as
// a cache-key fingerprint here, never for verification.
func GrantKey(share *model.SharedReport) string {
	sum := md5.Sum([]byte(share.PasswordHash))
	return fmt.Sprintf("share-authed-%d-%s-%x", share.ID, share.ShareKey, sum)
}
