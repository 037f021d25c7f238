package share

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/timekeep/timesheet-share/internal/model"
	"github.com/timekeep/timesheet-share/internal/repository"
	"github.com/timekeep/timesheet-share/internal/utils"
)

type fakeStore struct {
	existsResults []bool
	existsCalls   int

	createErrs  []error
	createCalls int
	createdKeys []string

	updated []*model.SharedReport
	deleted []uint64
}

func (f *fakeStore) ExistsByScopeAndKey(_ context.Context, _ model.Scope, _ string) (bool, error) {
	f.existsCalls++
	if len(f.existsResults) == 0 {
		return false, nil
	}
	r := f.existsResults[0]
	f.existsResults = f.existsResults[1:]
	return r, nil
}

func (f *fakeStore) Create(_ context.Context, sh *model.SharedReport) error {
	f.createCalls++
	f.createdKeys = append(f.createdKeys, sh.ShareKey)
	if len(f.createErrs) == 0 {
		sh.ID = uint64(f.createCalls)
		return nil
	}
	err := f.createErrs[0]
	f.createErrs = f.createErrs[1:]
	if err == nil {
		sh.ID = uint64(f.createCalls)
	}
	return err
}

func (f *fakeStore) Update(_ context.Context, sh *model.SharedReport) error {
	f.updated = append(f.updated, sh)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uint64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func newShare() *model.SharedReport {
	return &model.SharedReport{Scope: model.ProjectScope(1), MergeMode: model.MergeModeNone}
}

var shareKeyPattern = regexp.MustCompile(`^[a-z0-9]{12}$`)

func TestCreateGeneratesKey(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, bcrypt.MinCost)
	sh := newShare()

	require.NoError(t, svc.Create(context.Background(), sh, ""))
	assert.Regexp(t, shareKeyPattern, sh.ShareKey)
	assert.Empty(t, sh.PasswordHash)
	assert.Equal(t, 1, store.createCalls)
	assert.NotZero(t, sh.ID)
}

func TestCreateKeepsExplicitKey(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, bcrypt.MinCost)
	sh := newShare()
	sh.ShareKey = "customkey123"

	require.NoError(t, svc.Create(context.Background(), sh, ""))
	assert.Equal(t, "customkey123", sh.ShareKey)
	assert.Zero(t, store.existsCalls, "explicit keys skip the collision pre-check")
}

func TestCreateRetriesOnCollision(t *testing.T) {
	store := &fakeStore{existsResults: []bool{true, true, false}}
	svc := NewService(store, bcrypt.MinCost)
	sh := newShare()

	require.NoError(t, svc.Create(context.Background(), sh, ""))
	assert.Equal(t, 3, store.existsCalls)
	assert.Equal(t, 1, store.createCalls)
	assert.Regexp(t, shareKeyPattern, sh.ShareKey)
}

func TestCreateGivesUpAfterAttemptBudget(t *testing.T) {
	store := &fakeStore{existsResults: []bool{true, true, true, true, true, true, true, true, true, true, true, true}}
	svc := NewService(store, bcrypt.MinCost)

	err := svc.Create(context.Background(), newShare(), "")
	assert.ErrorIs(t, err, ErrKeyGeneration)
	assert.Zero(t, store.createCalls)
}

func TestCreateRetriesOnDuplicateInsert(t *testing.T) {
	// the pre-check passes but another creation wins the race
	store := &fakeStore{createErrs: []error{repository.ErrDuplicateShareKey, nil}}
	svc := NewService(store, bcrypt.MinCost)
	sh := newShare()

	require.NoError(t, svc.Create(context.Background(), sh, ""))
	require.Equal(t, 2, store.createCalls)
	assert.NotEqual(t, store.createdKeys[0], store.createdKeys[1])
	assert.Equal(t, store.createdKeys[1], sh.ShareKey)
}

func TestCreateExplicitKeyDuplicateFails(t *testing.T) {
	store := &fakeStore{createErrs: []error{repository.ErrDuplicateShareKey}}
	svc := NewService(store, bcrypt.MinCost)
	sh := newShare()
	sh.ShareKey = "customkey123"

	err := svc.Create(context.Background(), sh, "")
	assert.ErrorIs(t, err, repository.ErrDuplicateShareKey)
	assert.Equal(t, 1, store.createCalls)
}

func TestCreateInvalidShare(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, bcrypt.MinCost)

	err := svc.Create(context.Background(), &model.SharedReport{MergeMode: model.MergeModeNone}, "")
	assert.ErrorIs(t, err, ErrInvalidShare)

	sh := newShare()
	sh.MergeMode = model.MergeMode("BOGUS")
	err = svc.Create(context.Background(), sh, "")
	assert.ErrorIs(t, err, ErrInvalidShare)
	assert.Zero(t, store.createCalls)
}

func TestCreateHashesPassword(t *testing.T) {
	svc := NewService(&fakeStore{}, bcrypt.MinCost)
	sh := newShare()

	require.NoError(t, svc.Create(context.Background(), sh, "secret"))
	require.NotEmpty(t, sh.PasswordHash)
	assert.NotEqual(t, "secret", sh.PasswordHash)
	assert.True(t, utils.VerifyPassword(sh.PasswordHash, "secret"))
}

func TestUpdateRequiresShareKey(t *testing.T) {
	svc := NewService(&fakeStore{}, bcrypt.MinCost)

	err := svc.Update(context.Background(), newShare(), PasswordUnchanged)
	assert.ErrorIs(t, err, ErrInvalidShare)
}

func TestUpdatePasswordSemantics(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, bcrypt.MinCost)

	sh := newShare()
	sh.ShareKey = "abcdef123456"
	sh.PasswordHash = "$existing-hash"

	// sentinel keeps the stored hash
	require.NoError(t, svc.Update(context.Background(), sh, PasswordUnchanged))
	assert.Equal(t, "$existing-hash", sh.PasswordHash)

	// a new value replaces it
	require.NoError(t, svc.Update(context.Background(), sh, "fresh"))
	assert.True(t, utils.VerifyPassword(sh.PasswordHash, "fresh"))

	// an empty value clears it
	require.NoError(t, svc.Update(context.Background(), sh, ""))
	assert.Empty(t, sh.PasswordHash)
	assert.False(t, sh.HasPassword())

	assert.Len(t, store.updated, 3)
}

func TestDelete(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, bcrypt.MinCost)

	require.NoError(t, svc.Delete(context.Background(), 42))
	assert.Equal(t, []uint64{42}, store.deleted)
}
