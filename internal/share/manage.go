// Package share implements the admin-side lifecycle of shared reports:
// key generation on creation, password rotation and deletion.
package share

import (
	"context"
	"errors"
	"fmt"

	"github.com/timekeep/timesheet-share/internal/model"
	"github.com/timekeep/timesheet-share/internal/repository"
	"github.com/timekeep/timesheet-share/internal/utils"
)

// PasswordUnchanged is the sentinel an update request carries when the
// stored password hash should be left untouched. An empty password clears
// the password instead.
const PasswordUnchanged = "__DO_NOT_CHANGE__"

const (
	shareKeyLength = 12
	maxKeyAttempts = 10
)

var (
	// ErrInvalidShare marks a malformed share: missing share key on
	// update, or a scope that resolves to nothing. Treated as fatal for
	// the current request.
	ErrInvalidShare = errors.New("invalid shared report")

	// ErrKeyGeneration is returned when no collision-free share key could
	// be generated within the attempt budget.
	ErrKeyGeneration = errors.New("share key generation failed")
)

// Store is the persistence boundary for shared report configurations. The
// unique key over (project, customer, share_key) lives in the database;
// ExistsByScopeAndKey is only a pre-check to avoid predictable constraint
// violations.
type Store interface {
	ExistsByScopeAndKey(ctx context.Context, scope model.Scope, key string) (bool, error)
	Create(ctx context.Context, share *model.SharedReport) error
	Update(ctx context.Context, share *model.SharedReport) error
	Delete(ctx context.Context, id uint64) error
}

// Service manages shared report configurations.
type Service struct {
	store Store
	hash  func(plain string, cost int) (string, error)
	cost  int
}

func NewService(store Store, bcryptCost int) *Service {
	return &Service{store: store, hash: utils.HashPassword, cost: bcryptCost}
}

// Create persists a new share. A missing share key is generated randomly
// and collision-checked against existing keys of the same scope; on a
// constraint violation the generation is retried a bounded number of
// times.
func (s *Service) Create(ctx context.Context, sh *model.SharedReport, password string) error {
	if err := s.validate(sh); err != nil {
		return err
	}
	if err := s.applyPassword(sh, password); err != nil {
		return err
	}

	generated := sh.ShareKey == ""
	for attempt := 0; ; attempt++ {
		if generated {
			if attempt >= maxKeyAttempts {
				return fmt.Errorf("%w: gave up after %d attempts", ErrKeyGeneration, attempt)
			}
			key, err := utils.NewShareKey(shareKeyLength)
			if err != nil {
				return err
			}
			exists, err := s.store.ExistsByScopeAndKey(ctx, sh.Scope, key)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			sh.ShareKey = key
		}

		err := s.store.Create(ctx, sh)
		if err == nil {
			return nil
		}
		// The pre-check raced another creation; draw a fresh key.
		if generated && errors.Is(err, repository.ErrDuplicateShareKey) {
			sh.ShareKey = ""
			continue
		}
		return err
	}
}

// Update persists changes to an existing share, applying the password
// semantics: PasswordUnchanged keeps the stored hash, a non-empty value
// replaces it, an empty value clears it.
func (s *Service) Update(ctx context.Context, sh *model.SharedReport, password string) error {
	if sh.ShareKey == "" {
		return fmt.Errorf("%w: share key is missing", ErrInvalidShare)
	}
	if err := s.validate(sh); err != nil {
		return err
	}
	if err := s.applyPassword(sh, password); err != nil {
		return err
	}
	return s.store.Update(ctx, sh)
}

// Delete removes a share permanently. Cached session grants die with the
// share because the grant key embeds the share ID.
func (s *Service) Delete(ctx context.Context, id uint64) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) validate(sh *model.SharedReport) error {
	if !sh.Scope.Valid() {
		return fmt.Errorf("%w: scope is not resolvable", ErrInvalidShare)
	}
	if _, err := model.ParseMergeMode(string(sh.MergeMode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	return nil
}

func (s *Service) applyPassword(sh *model.SharedReport, password string) error {
	switch password {
	case PasswordUnchanged:
		return nil
	case "":
		sh.PasswordHash = ""
		return nil
	default:
		hashed, err := s.hash(password, s.cost)
		if err != nil {
			return err
		}
		sh.PasswordHash = hashed
		return nil
	}
}
