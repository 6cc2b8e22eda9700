package items

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/internal/roster"
	"github.com/threadline/threadline-backend/internal/workflow"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/events"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/types"
)

// ImageInput is one image pair attached at creation.
type ImageInput struct {
	FullURL  string
	ThumbURL string
}

// CreateItemInput carries everything needed to enter a garment into the
// pipeline. Status and assignee are never accepted from callers.
type CreateItemInput struct {
	Type         enums.ClothType
	BillNumber   string
	Quantity     int
	CustomerName *string
	Images       []ImageInput
}

// ListResult is one page of items with the cursor for the next page, empty
// on the last one.
type ListResult struct {
	Items  []models.ClothItem `json:"items"`
	Cursor string             `json:"cursor"`
}

// Service is the assignment engine: the single write path for item status,
// assignee and history.
type Service interface {
	Create(ctx context.Context, input CreateItemInput) (*models.ClothItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ClothItem, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	CompleteTask(ctx context.Context, id uuid.UUID) (*models.ClothItem, error)
	AssignToWorker(ctx context.Context, id uuid.UUID, worker string) (*models.ClothItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db        *db.Client
	repo      Repository
	table     *workflow.Table
	roster    roster.Service
	publisher events.Publisher
	logg      *logger.Logger
}

func NewService(dbc *db.Client, repo Repository, table *workflow.Table, rosterSvc roster.Service, publisher events.Publisher, logg *logger.Logger) Service {
	if repo == nil {
		panic("items: repo is required")
	}
	if table == nil {
		panic("items: workflow table is required")
	}
	if rosterSvc == nil {
		panic("items: roster service is required")
	}
	if logg == nil {
		panic("items: logger is required")
	}
	return &service{
		db:        dbc,
		repo:      repo,
		table:     table,
		roster:    rosterSvc,
		publisher: publisher,
		logg:      logg,
	}
}

// Create enters a new item at the configured first stage, assigned to that
// stage's default worker. The creation history entry is written in the same
// transaction as the item.
func (s *service) Create(ctx context.Context, input CreateItemInput) (*models.ClothItem, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	view, err := s.roster.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	first := s.table.First(view)

	item := &models.ClothItem{
		ID:           uuid.New(),
		Type:         input.Type,
		BillNumber:   input.BillNumber,
		Quantity:     input.Quantity,
		CustomerName: input.CustomerName,
		Status:       first.NextStatus,
		AssignedTo:   first.NextAssignee,
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	for i, img := range input.Images {
		item.Images = append(item.Images, models.ClothImage{
			ID:       uuid.New(),
			ItemID:   item.ID,
			FullURL:  img.FullURL,
			ThumbURL: img.ThumbURL,
			Position: i,
		})
	}

	entry := models.HistoryEntry{
		ID:         uuid.New(),
		ItemID:     item.ID,
		Seq:        1,
		Status:     item.Status,
		AssignedTo: item.AssignedTo,
		Action:     enums.HistoryActionCreatedByAdmin,
		Params: types.JSONMap{
			"billNumber": item.BillNumber,
			"clothType":  item.Type.String(),
		},
	}
	err = s.inTx(ctx, func(repo Repository) error {
		if err := repo.Create(ctx, item); err != nil {
			return err
		}
		return repo.AppendHistory(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}
	item.History = append(item.History, entry)

	s.logg.Info(s.logg.WithItemID(ctx, item.ID.String()), "cloth item created")
	s.publishAssignment(ctx, item, enums.HistoryActionCreatedByAdmin)
	return item, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ClothItem, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

// CompleteTask advances the item one stage. The status move is a compare-
// and-swap against the status read here; losing the race returns a conflict
// and leaves the item untouched.
func (s *service) CompleteTask(ctx context.Context, id uuid.UUID) (*models.ClothItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view, err := s.roster.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	transition, ok := s.table.Next(item.Status, view)
	if !ok {
		return nil, errors.New(errors.CodeNoTransition, "no transition from current status").
			WithDetails(map[string]any{"status": item.Status})
	}

	fromStatus := item.Status
	var entry models.HistoryEntry
	err = s.inTx(ctx, func(repo Repository) error {
		n, err := repo.UpdateStatusAssignee(ctx, id, fromStatus, transition.NextStatus, transition.NextAssignee)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New(errors.CodeConflict, "item was moved by another request")
		}
		seq, err := repo.NextSeq(ctx, id)
		if err != nil {
			return err
		}
		entry = models.HistoryEntry{
			ID:         uuid.New(),
			ItemID:     id,
			Seq:        seq,
			Status:     transition.NextStatus,
			AssignedTo: transition.NextAssignee,
			Action:     enums.HistoryActionCompletedStage,
			Params: types.JSONMap{
				"fromStatus": fromStatus.String(),
				"toStatus":   transition.NextStatus.String(),
			},
		}
		return repo.AppendHistory(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}

	// The returned item must stay in step with its history tail.
	item.Status = transition.NextStatus
	item.AssignedTo = transition.NextAssignee
	item.History = append(item.History, entry)

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"item_id":     id.String(),
		"from_status": fromStatus.String(),
		"to_status":   transition.NextStatus.String(),
	})
	s.logg.Info(logCtx, "stage completed")
	s.publishAssignment(ctx, item, enums.HistoryActionCompletedStage)
	return item, nil
}

// AssignToWorker is the admin override: it rewrites the assignee without
// moving the status. Any worker name is accepted, on the roster or not.
func (s *service) AssignToWorker(ctx context.Context, id uuid.UUID, worker string) (*models.ClothItem, error) {
	if worker == "" {
		return nil, errors.New(errors.CodeValidation, "worker name is required")
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expectStatus := item.Status
	var entry models.HistoryEntry
	err = s.inTx(ctx, func(repo Repository) error {
		n, err := repo.UpdateAssignee(ctx, id, expectStatus, worker)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New(errors.CodeConflict, "item was moved by another request")
		}
		seq, err := repo.NextSeq(ctx, id)
		if err != nil {
			return err
		}
		assignee := worker
		entry = models.HistoryEntry{
			ID:         uuid.New(),
			ItemID:     id,
			Seq:        seq,
			Status:     expectStatus,
			AssignedTo: &assignee,
			Action:     enums.HistoryActionAssignedForStage,
			Params: types.JSONMap{
				"status": expectStatus.String(),
			},
		}
		return repo.AppendHistory(ctx, &entry)
	})
	if err != nil {
		return nil, err
	}

	item.AssignedTo = &worker
	item.History = append(item.History, entry)
	s.logg.Info(s.logg.WithWorker(s.logg.WithItemID(ctx, id.String()), worker), "item assigned to worker")
	s.publishAssignment(ctx, item, enums.HistoryActionAssignedForStage)
	return item, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New(errors.CodeNotFound, "cloth item not found")
	}
	s.logg.Info(s.logg.WithItemID(ctx, id.String()), "cloth item deleted")
	return nil
}

func (s *service) inTx(ctx context.Context, fn func(repo Repository) error) error {
	if s.db == nil {
		return fn(s.repo)
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx))
	})
}

// publishAssignment emits a task.assigned event after commit when the item
// landed on a concrete worker. Publish failures are logged and swallowed;
// the state change already happened.
func (s *service) publishAssignment(ctx context.Context, item *models.ClothItem, action enums.HistoryAction) {
	if s.publisher == nil || item.AssignedTo == nil || *item.AssignedTo == "" {
		return
	}
	payload := events.TaskAssignedPayload{
		ItemID:     item.ID.String(),
		BillNumber: item.BillNumber,
		ClothType:  item.Type,
		Status:     item.Status,
		AssignedTo: *item.AssignedTo,
		Action:     action,
	}
	if err := s.publisher.PublishTaskAssigned(ctx, payload); err != nil {
		s.logg.Error(s.logg.WithItemID(ctx, item.ID.String()), "failed to publish assignment event", err)
	}
}

func validateCreate(input CreateItemInput) error {
	if !input.Type.IsValid() {
		return errors.New(errors.CodeValidation, "unknown cloth type")
	}
	if input.BillNumber == "" {
		return errors.New(errors.CodeValidation, "billNumber is required")
	}
	if input.Quantity < 0 {
		return errors.New(errors.CodeValidation, "quantity must be positive")
	}
	for _, img := range input.Images {
		if img.FullURL == "" || img.ThumbURL == "" {
			return errors.New(errors.CodeValidation, "image urls are required")
		}
	}
	return nil
}
