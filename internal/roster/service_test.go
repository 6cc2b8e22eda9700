package roster

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
)

type fakeRepo struct {
	byRole   map[enums.WorkerRole][]string
	replaced int
	listed   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byRole: make(map[enums.WorkerRole][]string)}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) ListByRole(_ context.Context, role enums.WorkerRole) ([]models.RosterEntry, error) {
	f.listed++
	var out []models.RosterEntry
	for i, name := range f.byRole[role] {
		out = append(out, models.RosterEntry{Role: role, Name: name, Position: i})
	}
	return out, nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]models.RosterEntry, error) {
	var out []models.RosterEntry
	for role, names := range f.byRole {
		for i, name := range names {
			out = append(out, models.RosterEntry{Role: role, Name: name, Position: i})
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceRole(_ context.Context, role enums.WorkerRole, names []string) error {
	f.replaced++
	f.byRole[role] = append([]string(nil), names...)
	return nil
}

func (f *fakeRepo) Count(_ context.Context) (int64, error) {
	var n int64
	for _, names := range f.byRole {
		n += int64(len(names))
	}
	return n, nil
}

type fakeCache struct {
	values map[string]string
	dels   []string
}

func newFakeCache() *fakeCache { return &fakeCache{values: make(map[string]string)} }

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
		f.dels = append(f.dels, k)
	}
	return nil
}

func (f *fakeCache) RosterKey(role string) string { return "tl:roster:" + role }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

func TestAddWorkerAppendsAndKeepsDefault(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(nil, repo, nil, 0, testLogger())
	ctx := context.Background()

	if err := svc.AddWorker(ctx, enums.WorkerRoleCutting, "Feroz"); err != nil {
		t.Fatalf("AddWorker: %v", err)
	}
	if err := svc.AddWorker(ctx, enums.WorkerRoleCutting, "Hamid"); err != nil {
		t.Fatalf("AddWorker: %v", err)
	}

	def, err := svc.DefaultWorker(ctx, enums.WorkerRoleCutting)
	if err != nil {
		t.Fatalf("DefaultWorker: %v", err)
	}
	if def == nil || *def != "Feroz" {
		t.Fatalf("default = %v, want Feroz", def)
	}
}

func TestAddWorkerDuplicateIsNoop(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(nil, repo, nil, 0, testLogger())
	ctx := context.Background()

	if err := svc.AddWorker(ctx, enums.WorkerRoleCutting, "Feroz"); err != nil {
		t.Fatalf("AddWorker: %v", err)
	}
	if err := svc.AddWorker(ctx, enums.WorkerRoleCutting, "Feroz"); err != nil {
		t.Fatalf("duplicate AddWorker: %v", err)
	}
	names, err := svc.ListWorkers(ctx, enums.WorkerRoleCutting)
	if err != nil {
		t.Fatalf("ListWorkers: %v", err)
	}
	if len(names) != 1 {
		t.Fatalf("names = %v, want one entry", names)
	}
}

func TestRemoveWorker(t *testing.T) {
	repo := newFakeRepo()
	repo.byRole[enums.WorkerRoleIroning] = []string{"Iqbal", "Munir"}
	svc := NewService(nil, repo, nil, 0, testLogger())
	ctx := context.Background()

	if err := svc.RemoveWorker(ctx, enums.WorkerRoleIroning, "Iqbal"); err != nil {
		t.Fatalf("RemoveWorker: %v", err)
	}
	def, _ := svc.DefaultWorker(ctx, enums.WorkerRoleIroning)
	if def == nil || *def != "Munir" {
		t.Fatalf("default = %v, want Munir", def)
	}

	// Removing an absent name is a silent no-op.
	if err := svc.RemoveWorker(ctx, enums.WorkerRoleIroning, "Zafar"); err != nil {
		t.Fatalf("RemoveWorker absent: %v", err)
	}
	names, _ := svc.ListWorkers(ctx, enums.WorkerRoleIroning)
	if len(names) != 1 || names[0] != "Munir" {
		t.Fatalf("names = %v", names)
	}
}

func TestSetDefaultWorkerReorders(t *testing.T) {
	repo := newFakeRepo()
	repo.byRole[enums.WorkerRoleButtoning] = []string{"Bina", "Rupa"}
	svc := NewService(nil, repo, nil, 0, testLogger())
	ctx := context.Background()

	if err := svc.SetDefaultWorker(ctx, enums.WorkerRoleButtoning, "Rupa"); err != nil {
		t.Fatalf("SetDefaultWorker: %v", err)
	}
	names, _ := svc.ListWorkers(ctx, enums.WorkerRoleButtoning)
	if len(names) != 2 || names[0] != "Rupa" || names[1] != "Bina" {
		t.Fatalf("names = %v", names)
	}

	err := svc.SetDefaultWorker(ctx, enums.WorkerRoleButtoning, "Asha")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestListWorkersValidatesRole(t *testing.T) {
	svc := NewService(nil, newFakeRepo(), nil, 0, testLogger())
	_, err := svc.ListWorkers(context.Background(), enums.WorkerRole("janitor"))
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestListWorkersUsesCache(t *testing.T) {
	repo := newFakeRepo()
	repo.byRole[enums.WorkerRoleCutting] = []string{"Feroz"}
	cache := newFakeCache()
	svc := NewService(nil, repo, cache, 0, testLogger())
	ctx := context.Background()

	names, err := svc.ListWorkers(ctx, enums.WorkerRoleCutting)
	if err != nil {
		t.Fatalf("ListWorkers: %v", err)
	}
	if len(names) != 1 || names[0] != "Feroz" {
		t.Fatalf("names = %v", names)
	}
	if repo.listed != 1 {
		t.Fatalf("repo reads = %d, want 1", repo.listed)
	}

	// Second read is served from cache.
	if _, err := svc.ListWorkers(ctx, enums.WorkerRoleCutting); err != nil {
		t.Fatalf("ListWorkers: %v", err)
	}
	if repo.listed != 1 {
		t.Fatalf("repo reads = %d, want cache hit", repo.listed)
	}

	var cached []string
	raw := cache.values[cache.RosterKey("cutting_worker")]
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("cached payload: %v", err)
	}
	if len(cached) != 1 || cached[0] != "Feroz" {
		t.Fatalf("cached = %v", cached)
	}
}

func TestMutationInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	cache := newFakeCache()
	svc := NewService(nil, repo, cache, 0, testLogger())
	ctx := context.Background()

	if err := svc.AddWorker(ctx, enums.WorkerRoleCutting, "Feroz"); err != nil {
		t.Fatalf("AddWorker: %v", err)
	}
	if len(cache.dels) != 1 || cache.dels[0] != cache.RosterKey("cutting_worker") {
		t.Fatalf("dels = %v", cache.dels)
	}
}

func TestSnapshotDefaultWorker(t *testing.T) {
	repo := newFakeRepo()
	repo.byRole[enums.WorkerRoleCutting] = []string{"Feroz", "Hamid"}
	svc := NewService(nil, repo, nil, 0, testLogger())

	view, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	name, ok := view.DefaultWorker(enums.WorkerRoleCutting)
	if !ok || name != "Feroz" {
		t.Fatalf("default = %q %v", name, ok)
	}
	if _, ok := view.DefaultWorker(enums.WorkerRoleTailor); ok {
		t.Fatal("tailor should have no default")
	}
}

func TestSeedSkipsNonEmptyRoster(t *testing.T) {
	repo := newFakeRepo()
	repo.byRole[enums.WorkerRoleAdmin] = []string{"Admin"}
	svc := NewService(nil, repo, nil, 0, testLogger())

	err := svc.Seed(context.Background(), map[enums.WorkerRole][]string{
		enums.WorkerRoleCutting: {"Feroz"},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if repo.replaced != 0 {
		t.Fatalf("replaced = %d, want 0", repo.replaced)
	}
}
