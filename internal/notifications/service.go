package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/internal/tokens"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/metrics"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/push"
)

// ListParams configures pagination for a user's notification feed.
type ListParams struct {
	UserName   string
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// DispatchResult reports how a dispatch fanned out: the durable record is
// implied, Delivered counts push sends that succeeded.
type DispatchResult struct {
	NotificationID uuid.UUID
	Delivered      int
	Total          int
}

// Service owns the notification feed and the dual-channel dispatch: one
// durable row per recipient, then best-effort pushes to every device token.
type Service interface {
	Dispatch(ctx context.Context, recipient, title, message string, data map[string]string) (*DispatchResult, error)
	SendToTokens(ctx context.Context, recipient string, deviceTokens []string, title, body string, data map[string]string) int
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userName string, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userName string) (int64, error)
}

type service struct {
	repo    Repository
	tokens  tokens.Service
	sender  push.Sender
	metrics *metrics.DispatchMetrics
	cfg     config.PushConfig
	logg    *logger.Logger
}

// NewService wires notification dependencies. sender may be nil, dispatch
// then writes the durable record and skips the push leg.
func NewService(repo Repository, tokenSvc tokens.Service, sender push.Sender, dm *metrics.DispatchMetrics, cfg config.PushConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeDependency, "notifications repository required")
	}
	if tokenSvc == nil {
		return nil, errors.New(errors.CodeDependency, "token service required")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeDependency, "logger required")
	}
	return &service{
		repo:    repo,
		tokens:  tokenSvc,
		sender:  sender,
		metrics: dm,
		cfg:     cfg,
		logg:    logg,
	}, nil
}

// Dispatch writes the durable record first; a failure there fails the whole
// dispatch. Push failures only lower the delivered count.
func (s *service) Dispatch(ctx context.Context, recipient, title, message string, data map[string]string) (*DispatchResult, error) {
	if recipient == "" {
		return nil, errors.New(errors.CodeValidation, "recipient is required")
	}
	if message == "" {
		return nil, errors.New(errors.CodeValidation, "message is required")
	}
	if title == "" {
		title = s.cfg.DefaultTitle
	}

	started := time.Now()
	notification := &models.Notification{
		ID:       uuid.New(),
		UserName: recipient,
		Title:    title,
		Message:  message,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, errors.Wrap(errors.CodeDispatch, err, "failed to record notification")
	}

	deviceTokens, err := s.tokens.TokensFor(ctx, recipient)
	if err != nil {
		// The record is already durable; a token lookup failure just means
		// no pushes go out.
		s.logg.Error(s.logg.WithWorker(ctx, recipient), "failed to load device tokens", err)
		deviceTokens = nil
	}

	delivered := s.SendToTokens(ctx, recipient, deviceTokens, title, message, data)

	if s.metrics != nil {
		s.metrics.ObserveDuration(recipient, time.Since(started))
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"recipient": recipient,
		"delivered": delivered,
		"tokens":    len(deviceTokens),
	})
	s.logg.Info(logCtx, "notification dispatched")

	return &DispatchResult{
		NotificationID: notification.ID,
		Delivered:      delivered,
		Total:          len(deviceTokens),
	}, nil
}

// SendToTokens pushes to each token and returns the success count. Failures
// are logged and counted, never retried; stale tokens surface here as
// permanent failures until the device re-registers. Metrics are labeled by
// recipient, never by token, to keep the series set bounded.
func (s *service) SendToTokens(ctx context.Context, recipient string, deviceTokens []string, title, body string, data map[string]string) int {
	if s.sender == nil || len(deviceTokens) == 0 {
		return 0
	}

	delivered := 0
	for _, token := range deviceTokens {
		sendCtx := ctx
		cancel := context.CancelFunc(func() {})
		if s.cfg.SendTimeout > 0 {
			sendCtx, cancel = context.WithTimeout(ctx, s.cfg.SendTimeout)
		}
		err := s.sender.Send(sendCtx, push.Message{
			Token: token,
			Title: title,
			Body:  body,
			Data:  data,
		})
		cancel()
		if err != nil {
			if s.metrics != nil {
				s.metrics.IncFailure(recipient)
			}
			s.logg.Error(ctx, "push send failed", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.IncSuccess(recipient)
		}
		delivered++
	}
	return delivered
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserName == "" {
		return nil, errors.New(errors.CodeValidation, "userName is required")
	}

	query := listNotificationsParams{
		UserName:   params.UserName,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// MarkRead is idempotent: re-reading an already-read notification succeeds
// without touching the original timestamp.
func (s *service) MarkRead(ctx context.Context, userName string, id uuid.UUID) error {
	if userName == "" {
		return errors.New(errors.CodeValidation, "userName is required")
	}
	if id == uuid.Nil {
		return errors.New(errors.CodeValidation, "notification id is required")
	}

	result, err := s.repo.MarkRead(ctx, userName, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if !result.Found {
		return errors.New(errors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userName string) (int64, error) {
	if userName == "" {
		return 0, errors.New(errors.CodeValidation, "userName is required")
	}
	return s.repo.MarkAllRead(ctx, userName, time.Now().UTC())
}
