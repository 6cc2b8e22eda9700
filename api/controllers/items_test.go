package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/threadline/threadline-backend/internal/items"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
)

type stubItemService struct {
	created   *items.CreateItemInput
	completed []uuid.UUID
	assigned  map[uuid.UUID]string
	err       error
	item      *models.ClothItem
}

func (s *stubItemService) Create(_ context.Context, input items.CreateItemInput) (*models.ClothItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &input
	return s.item, nil
}

func (s *stubItemService) Get(context.Context, uuid.UUID) (*models.ClothItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.item, nil
}

func (s *stubItemService) List(context.Context, items.ListParams) (*items.ListResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := &items.ListResult{}
	if s.item != nil {
		out.Items = []models.ClothItem{*s.item}
	}
	return out, nil
}

func (s *stubItemService) CompleteTask(_ context.Context, id uuid.UUID) (*models.ClothItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.completed = append(s.completed, id)
	return s.item, nil
}

func (s *stubItemService) AssignToWorker(_ context.Context, id uuid.UUID, worker string) (*models.ClothItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.assigned == nil {
		s.assigned = map[uuid.UUID]string{}
	}
	s.assigned[id] = worker
	return s.item, nil
}

func (s *stubItemService) Delete(context.Context, uuid.UUID) error {
	return s.err
}

func withItemID(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("itemID", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func sampleItem() *models.ClothItem {
	assignee := "Feroz"
	return &models.ClothItem{
		ID:         uuid.New(),
		Type:       enums.ClothTypeShirt,
		BillNumber: "B-1001",
		Quantity:   1,
		Status:     enums.ClothStatusAwaitingCutting,
		AssignedTo: &assignee,
	}
}

func TestCreateItem(t *testing.T) {
	logg := testControllerLogger()

	t.Run("success", func(t *testing.T) {
		stub := &stubItemService{item: sampleItem()}
		body := `{"type":"shirt","billNumber":"B-1001","quantity":2,"images":[{"fullUrl":"https://img/full.jpg","thumbUrl":"https://img/thumb.jpg"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(body))
		rec := httptest.NewRecorder()

		CreateItem(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if stub.created == nil || stub.created.Type != enums.ClothTypeShirt || stub.created.Quantity != 2 {
			t.Fatalf("created = %+v", stub.created)
		}
		if len(stub.created.Images) != 1 {
			t.Fatalf("images = %+v", stub.created.Images)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items",
			strings.NewReader(`{"type":"jacket","billNumber":"B-1"}`))
		rec := httptest.NewRecorder()

		CreateItem(&stubItemService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("status not accepted from clients", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/items",
			strings.NewReader(`{"type":"shirt","billNumber":"B-1","status":"ready"}`))
		rec := httptest.NewRecorder()

		CreateItem(&stubItemService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, unknown fields must be rejected", rec.Code)
		}
	})
}

func TestCompleteItemTask(t *testing.T) {
	logg := testControllerLogger()

	t.Run("success", func(t *testing.T) {
		stub := &stubItemService{item: sampleItem()}
		id := uuid.New()
		req := withItemID(httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/complete", nil), id.String())
		rec := httptest.NewRecorder()

		CompleteItemTask(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if len(stub.completed) != 1 || stub.completed[0] != id {
			t.Fatalf("completed = %v", stub.completed)
		}
	})

	t.Run("terminal status maps to 422", func(t *testing.T) {
		stub := &stubItemService{err: pkgerrors.New(pkgerrors.CodeNoTransition, "no transition from current status")}
		id := uuid.New()
		req := withItemID(httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/complete", nil), id.String())
		rec := httptest.NewRecorder()

		CompleteItemTask(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("lost race maps to 409", func(t *testing.T) {
		stub := &stubItemService{err: pkgerrors.New(pkgerrors.CodeConflict, "item was moved by another request")}
		id := uuid.New()
		req := withItemID(httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/complete", nil), id.String())
		rec := httptest.NewRecorder()

		CompleteItemTask(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		req := withItemID(httptest.NewRequest(http.MethodPost, "/api/v1/items/nope/complete", nil), "nope")
		rec := httptest.NewRecorder()

		CompleteItemTask(&stubItemService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestAssignItem(t *testing.T) {
	logg := testControllerLogger()

	t.Run("success", func(t *testing.T) {
		stub := &stubItemService{item: sampleItem()}
		id := uuid.New()
		req := withItemID(httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/assign",
			strings.NewReader(`{"worker":"Zafar"}`)), id.String())
		rec := httptest.NewRecorder()

		AssignItem(stub, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if stub.assigned[id] != "Zafar" {
			t.Fatalf("assigned = %v", stub.assigned)
		}
	})

	t.Run("missing worker", func(t *testing.T) {
		id := uuid.New()
		req := withItemID(httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/assign",
			strings.NewReader(`{}`)), id.String())
		rec := httptest.NewRecorder()

		AssignItem(&stubItemService{}, logg).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}

func TestListItemsQueryValidation(t *testing.T) {
	logg := testControllerLogger()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items?status=bogus", nil)
	rec := httptest.NewRecorder()
	ListItems(&stubItemService{}, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/items?limit=-2", nil)
	rec = httptest.NewRecorder()
	ListItems(&stubItemService{}, logg).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDeleteItemNotFound(t *testing.T) {
	logg := testControllerLogger()
	stub := &stubItemService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cloth item not found")}
	id := uuid.New()
	req := withItemID(httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+id.String(), nil), id.String())
	rec := httptest.NewRecorder()

	DeleteItem(stub, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
