package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/timekeep/timesheet-share/internal/model"
	"github.com/timekeep/timesheet-share/internal/utils"
)

// spySession counts writes so tests can assert that failed attempts never
// touch the session.
type spySession struct {
	*MemorySessionStore
	sets int
}

func newSpySession() *spySession {
	return &spySession{MemorySessionStore: NewMemorySessionStore()}
}

func (s *spySession) Set(ctx context.Context, key, value string) error {
	s.sets++
	return s.MemorySessionStore.Set(ctx, key, value)
}

func fakeVerify(hash, plain string) bool {
	return hash == "h:"+plain
}

func protectedShare() *model.SharedReport {
	return &model.SharedReport{ID: 5, ShareKey: "abc123def456", PasswordHash: "h:secret"}
}

func TestVerifyNoPassword(t *testing.T) {
	g := NewGate(fakeVerify)
	sess := newSpySession()
	sh := &model.SharedReport{ID: 5, ShareKey: "abc123def456"}

	granted, err := g.Verify(context.Background(), sh, "", sess)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Zero(t, sess.sets)

	// a supplied password is simply ignored
	granted, err = g.Verify(context.Background(), sh, "whatever", sess)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Zero(t, sess.sets)
}

func TestVerifyRejectsMissingOrWrongPassword(t *testing.T) {
	g := NewGate(fakeVerify)
	sess := newSpySession()
	sh := protectedShare()

	for _, password := range []string{"", "nope"} {
		granted, err := g.Verify(context.Background(), sh, password, sess)
		require.NoError(t, err)
		assert.False(t, granted)
	}
	assert.Zero(t, sess.sets, "failed attempts must not write to the session")
}

func TestVerifyGrantsAndCaches(t *testing.T) {
	g := NewGate(fakeVerify)
	sess := newSpySession()
	sh := protectedShare()

	granted, err := g.Verify(context.Background(), sh, "secret", sess)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 1, sess.sets)

	// the cached grant covers later requests of the same session,
	// password or not
	granted, err = g.Verify(context.Background(), sh, "", sess)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = g.Verify(context.Background(), sh, "wrong", sess)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 1, sess.sets)
}

func TestVerifyHashRotationInvalidatesGrant(t *testing.T) {
	g := NewGate(fakeVerify)
	sess := newSpySession()
	sh := protectedShare()

	granted, err := g.Verify(context.Background(), sh, "secret", sess)
	require.NoError(t, err)
	require.True(t, granted)

	rotated := *sh
	rotated.PasswordHash = "h:changed"

	granted, err = g.Verify(context.Background(), &rotated, "secret", sess)
	require.NoError(t, err)
	assert.False(t, granted, "old grant must not survive a password change")

	granted, err = g.Verify(context.Background(), &rotated, "changed", sess)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestVerifyDefaultBcrypt(t *testing.T) {
	hash, err := utils.HashPassword("secret", bcrypt.MinCost)
	require.NoError(t, err)

	g := NewGate(nil)
	sess := newSpySession()
	sh := &model.SharedReport{ID: 5, ShareKey: "abc123def456", PasswordHash: hash}

	granted, err := g.Verify(context.Background(), sh, "wrong", sess)
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = g.Verify(context.Background(), sh, "secret", sess)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestGrantKeyDistinguishesShares(t *testing.T) {
	a := protectedShare()
	b := protectedShare()
	b.ID = 6

	assert.NotEqual(t, GrantKey(a), GrantKey(b))

	c := protectedShare()
	c.PasswordHash = "h:other"
	assert.NotEqual(t, GrantKey(a), GrantKey(c))
}
