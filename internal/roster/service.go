package roster

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/internal/workflow"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	redisclient "github.com/threadline/threadline-backend/pkg/redis"
)

const defaultCacheTTL = 30 * time.Second

// Service manages the per-role worker lists. Index 0 of each list is the
// role's default worker, the one new stage work is handed to.
type Service interface {
	ListAll(ctx context.Context) (map[enums.WorkerRole][]string, error)
	ListWorkers(ctx context.Context, role enums.WorkerRole) ([]string, error)
	AddWorker(ctx context.Context, role enums.WorkerRole, name string) error
	RemoveWorker(ctx context.Context, role enums.WorkerRole, name string) error
	SetDefaultWorker(ctx context.Context, role enums.WorkerRole, name string) error
	DefaultWorker(ctx context.Context, role enums.WorkerRole) (*string, error)
	Snapshot(ctx context.Context) (workflow.RosterView, error)
	Seed(ctx context.Context, roster map[enums.WorkerRole][]string) error
}

// Cache is the slice of the Redis client the roster cache needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	RosterKey(role string) string
}

type service struct {
	db       *db.Client
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the roster service. cache may be nil; reads then always
// hit the database. A non-positive cacheTTL falls back to the default.
func NewService(dbc *db.Client, repo Repository, cache Cache, cacheTTL time.Duration, logg *logger.Logger) Service {
	if repo == nil {
		panic("roster: repo is required")
	}
	if logg == nil {
		panic("roster: logger is required")
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &service{db: dbc, repo: repo, cache: cache, cacheTTL: cacheTTL, logg: logg}
}

func (s *service) ListAll(ctx context.Context) (map[enums.WorkerRole][]string, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[enums.WorkerRole][]string)
	for _, e := range entries {
		out[e.Role] = append(out[e.Role], e.Name)
	}
	return out, nil
}

func (s *service) ListWorkers(ctx context.Context, role enums.WorkerRole) ([]string, error) {
	if !role.IsValid() {
		return nil, errors.New(errors.CodeValidation, "unknown worker role")
	}
	if names, ok := s.cachedRole(ctx, role); ok {
		return names, nil
	}
	entries, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	s.fillCache(ctx, role, names)
	return names, nil
}

func (s *service) AddWorker(ctx context.Context, role enums.WorkerRole, name string) error {
	if err := validateRoleName(role, name); err != nil {
		return err
	}
	return s.mutateRole(ctx, role, func(names []string) ([]string, error) {
		for _, n := range names {
			if n == name {
				// Already present, keep position.
				return names, nil
			}
		}
		return append(names, name), nil
	})
}

func (s *service) RemoveWorker(ctx context.Context, role enums.WorkerRole, name string) error {
	if err := validateRoleName(role, name); err != nil {
		return err
	}
	return s.mutateRole(ctx, role, func(names []string) ([]string, error) {
		out := names[:0]
		for _, n := range names {
			if n == name {
				// Removing the default promotes the next name by shift.
				continue
			}
			out = append(out, n)
		}
		return out, nil
	})
}

// SetDefaultWorker moves name to the front of the role's list. The name must
// already be on the roster.
func (s *service) SetDefaultWorker(ctx context.Context, role enums.WorkerRole, name string) error {
	if err := validateRoleName(role, name); err != nil {
		return err
	}
	return s.mutateRole(ctx, role, func(names []string) ([]string, error) {
		found := false
		for _, n := range names {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.New(errors.CodeNotFound, "worker not on roster")
		}
		out := []string{name}
		for _, n := range names {
			if n != name {
				out = append(out, n)
			}
		}
		return out, nil
	})
}

func (s *service) DefaultWorker(ctx context.Context, role enums.WorkerRole) (*string, error) {
	names, err := s.ListWorkers(ctx, role)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return &names[0], nil
}

// Snapshot reads the whole roster once and returns an immutable view for a
// single transition decision.
func (s *service) Snapshot(ctx context.Context) (workflow.RosterView, error) {
	byRole, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot(byRole), nil
}

// Seed writes the given roster only when the table is empty. Used on boot so
// a fresh deployment starts with a working crew.
func (s *service) Seed(ctx context.Context, roster map[enums.WorkerRole][]string) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	seed := func(repo Repository) error {
		for role, names := range roster {
			if err := repo.ReplaceRole(ctx, role, names); err != nil {
				return err
			}
		}
		return nil
	}
	if s.db != nil {
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			return seed(s.repo.WithTx(tx))
		})
	} else {
		err = seed(s.repo)
	}
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "roles", len(roster)), "seeded worker roster")
	return nil
}

func (s *service) mutateRole(ctx context.Context, role enums.WorkerRole, fn func([]string) ([]string, error)) error {
	entries, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	next, err := fn(names)
	if err != nil {
		return err
	}
	if s.db != nil {
		err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).ReplaceRole(ctx, role, next)
		})
	} else {
		err = s.repo.ReplaceRole(ctx, role, next)
	}
	if err != nil {
		return err
	}
	s.dropCache(ctx, role)
	return nil
}

func (s *service) cachedRole(ctx context.Context, role enums.WorkerRole) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.RosterKey(role.String()))
	if err != nil {
		if !redisclient.IsMiss(err) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "roster cache read failed")
		}
		return nil, false
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, false
	}
	return names, true
}

func (s *service) fillCache(ctx context.Context, role enums.WorkerRole, names []string) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.RosterKey(role.String()), string(raw), s.cacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "roster cache write failed")
	}
}

func (s *service) dropCache(ctx context.Context, role enums.WorkerRole) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.RosterKey(role.String())); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "roster cache invalidation failed")
	}
}

func validateRoleName(role enums.WorkerRole, name string) error {
	if !role.IsValid() {
		return errors.New(errors.CodeValidation, "unknown worker role")
	}
	if name == "" {
		return errors.New(errors.CodeValidation, "worker name is required")
	}
	return nil
}

// snapshot is a point-in-time roster read implementing workflow.RosterView.
type snapshot map[enums.WorkerRole][]string

func (s snapshot) DefaultWorker(role enums.WorkerRole) (string, bool) {
	names := s[role]
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}
