package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	paginationpkg "github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/push"
)

type fakeRepository struct {
	created       []*models.Notification
	createErr     error
	listFn        func(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error)
	markReadFn    func(ctx context.Context, userName string, id uuid.UUID, now time.Time) (MarkReadResult, error)
	markAllReadFn func(ctx context.Context, userName string, now time.Time) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(_ context.Context, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, userName string, id uuid.UUID, now time.Time) (MarkReadResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, userName, id, now)
	}
	return MarkReadResult{}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, userName string, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, userName, now)
	}
	return 0, nil
}

type fakeTokenService struct {
	tokens    map[string][]string
	tokensErr error
}

func (f *fakeTokenService) Register(context.Context, string, string) error { return nil }

func (f *fakeTokenService) TokensFor(_ context.Context, userName string) ([]string, error) {
	if f.tokensErr != nil {
		return nil, f.tokensErr
	}
	return f.tokens[userName], nil
}

func (f *fakeTokenService) Revoke(context.Context, string) (int64, error) { return 0, nil }

type fakeSender struct {
	sent    []push.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(_ context.Context, msg push.Message) error {
	if f.failFor[msg.Token] {
		return pkgerrors.New(pkgerrors.CodeDispatch, "token rejected")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
}

func pushConfig() config.PushConfig {
	return config.PushConfig{SendTimeout: time.Second, DefaultTitle: "New Task Assigned"}
}

func newTestService(t *testing.T, repo Repository, tokenSvc *fakeTokenService, sender push.Sender) Service {
	t.Helper()
	svc, err := NewService(repo, tokenSvc, sender, nil, pushConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestDispatchRecordsAndPushes(t *testing.T) {
	repo := &fakeRepository{}
	sender := &fakeSender{}
	tokenSvc := &fakeTokenService{tokens: map[string][]string{
		"Feroz": {"tok-a", "tok-b"},
	}}
	svc := newTestService(t, repo, tokenSvc, sender)

	result, err := svc.Dispatch(context.Background(), "Feroz", "New Task Assigned", "Item B-1 (shirt) assigned for awaiting_cutting", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Delivered != 2 || result.Total != 2 {
		t.Fatalf("result = %+v", result)
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d records", len(repo.created))
	}
	if repo.created[0].UserName != "Feroz" || repo.created[0].ReadAt != nil {
		t.Fatalf("record = %+v", repo.created[0])
	}
	if len(sender.sent) != 2 || sender.sent[0].Token != "tok-a" {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestDispatchCountsPushFailures(t *testing.T) {
	repo := &fakeRepository{}
	sender := &fakeSender{failFor: map[string]bool{"tok-b": true}}
	tokenSvc := &fakeTokenService{tokens: map[string][]string{
		"Feroz": {"tok-a", "tok-b", "tok-c"},
	}}
	svc := newTestService(t, repo, tokenSvc, sender)

	result, err := svc.Dispatch(context.Background(), "Feroz", "", "stage ready", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Delivered != 2 || result.Total != 3 {
		t.Fatalf("result = %+v", result)
	}
	// The durable record survives regardless of push outcomes.
	if len(repo.created) != 1 {
		t.Fatalf("created = %d records", len(repo.created))
	}
	// Empty title falls back to the configured default.
	if repo.created[0].Title != "New Task Assigned" {
		t.Fatalf("title = %q", repo.created[0].Title)
	}
}

func TestDispatchNoTokensStillRecords(t *testing.T) {
	repo := &fakeRepository{}
	sender := &fakeSender{}
	svc := newTestService(t, repo, &fakeTokenService{}, sender)

	result, err := svc.Dispatch(context.Background(), "Bina", "t", "m", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Delivered != 0 || result.Total != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(repo.created) != 1 {
		t.Fatal("durable record must still be written")
	}
}

func TestDispatchRecordFailureIsDispatchError(t *testing.T) {
	repo := &fakeRepository{createErr: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	svc := newTestService(t, repo, &fakeTokenService{}, &fakeSender{})

	_, err := svc.Dispatch(context.Background(), "Feroz", "t", "m", nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDispatch) {
		t.Fatalf("err = %v, want dispatch", err)
	}
}

func TestDispatchValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeTokenService{}, nil)
	ctx := context.Background()

	if _, err := svc.Dispatch(ctx, "", "t", "m", nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if _, err := svc.Dispatch(ctx, "Feroz", "t", "", nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSendToTokensWithoutSender(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeTokenService{}, nil)
	n := svc.SendToTokens(context.Background(), "Feroz", []string{"tok-a"}, "t", "b", nil)
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
}

func TestSendMetricsLabeledByRecipientNotToken(t *testing.T) {
	reg := prometheus.NewRegistry()
	dm := metrics.NewDispatchMetrics(reg)
	sender := &fakeSender{failFor: map[string]bool{"device-token-bad": true}}
	tokenSvc := &fakeTokenService{tokens: map[string][]string{
		"Feroz": {"device-token-good", "device-token-bad"},
	}}
	svc, err := NewService(&fakeRepository{}, tokenSvc, sender, dm, pushConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := svc.Dispatch(context.Background(), "Feroz", "t", "m", nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	seen := map[string]bool{}
	for _, mf := range mfs {
		seen[mf.GetName()] = true
	}
	if !seen["push_send_success"] || !seen["push_send_failure"] {
		t.Fatalf("expected both send counters, got %v", seen)
	}
	for _, mf := range mfs {
		for _, m := range mf.Metric {
			for _, pair := range m.Label {
				if pair.GetName() != "recipient" {
					continue
				}
				if pair.GetValue() != "Feroz" {
					t.Fatalf("%s recipient label = %q, want the user name", mf.GetName(), pair.GetValue())
				}
			}
		}
	}
}

func TestListPaginates(t *testing.T) {
	first := models.Notification{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	next := paginationpkg.Cursor{CreatedAt: first.CreatedAt, ID: first.ID}

	repo := &fakeRepository{
		listFn: func(_ context.Context, params listNotificationsParams) ([]models.Notification, *paginationpkg.Cursor, error) {
			if params.Limit != paginationpkg.LimitWithBuffer(1) {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if params.UserName != "Feroz" {
				t.Fatalf("unexpected user %q", params.UserName)
			}
			return []models.Notification{first}, &next, nil
		},
	}
	svc := newTestService(t, repo, &fakeTokenService{}, nil)

	result, err := svc.List(context.Background(), ListParams{UserName: "Feroz", Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d", len(result.Items))
	}
	if result.Cursor == "" {
		t.Fatal("expected next cursor")
	}
	decoded, err := paginationpkg.ParseCursor(result.Cursor)
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if decoded.ID != first.ID {
		t.Fatalf("cursor id = %s", decoded.ID)
	}
}

func TestListRejectsBadCursor(t *testing.T) {
	svc := newTestService(t, &fakeRepository{}, &fakeTokenService{}, nil)
	_, err := svc.List(context.Background(), ListParams{UserName: "Feroz", Cursor: "not-a-cursor"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	calls := 0
	repo := &fakeRepository{
		markReadFn: func(_ context.Context, _ string, _ uuid.UUID, _ time.Time) (MarkReadResult, error) {
			calls++
			if calls == 1 {
				return MarkReadResult{Found: true, Updated: true}, nil
			}
			// Second call: row exists but was already read.
			return MarkReadResult{Found: true}, nil
		},
	}
	svc := newTestService(t, repo, &fakeTokenService{}, nil)
	ctx := context.Background()
	id := uuid.New()

	if err := svc.MarkRead(ctx, "Feroz", id); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := svc.MarkRead(ctx, "Feroz", id); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
}

func TestMarkReadMissingIsNotFound(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(_ context.Context, _ string, _ uuid.UUID, _ time.Time) (MarkReadResult, error) {
			return MarkReadResult{}, nil
		},
	}
	svc := newTestService(t, repo, &fakeTokenService{}, nil)

	err := svc.MarkRead(context.Background(), "Feroz", uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	repo := &fakeRepository{
		markAllReadFn: func(_ context.Context, userName string, _ time.Time) (int64, error) {
			if userName != "Feroz" {
				t.Fatalf("user = %q", userName)
			}
			return 4, nil
		},
	}
	svc := newTestService(t, repo, &fakeTokenService{}, nil)

	n, err := svc.MarkAllRead(context.Background(), "Feroz")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
}
