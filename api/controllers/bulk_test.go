package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreau/storesync-backend/internal/bulk"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
)

type stubBulkService struct {
	startFn  func(ctx context.Context, kind enums.BulkKind, productIDs []int64) (string, error)
	runFn    func(ctx context.Context, operationID string, targetTenantIDs []int64) (*bulk.Operation, error)
	statusFn func(ctx context.Context, operationID string) (*bulk.Operation, error)
}

func (s stubBulkService) Start(ctx context.Context, kind enums.BulkKind, productIDs []int64) (string, error) {
	if s.startFn != nil {
		return s.startFn(ctx, kind, productIDs)
	}
	return "", nil
}

func (s stubBulkService) RunBatch(ctx context.Context, operationID string, targetTenantIDs []int64) (*bulk.Operation, error) {
	if s.runFn != nil {
		return s.runFn(ctx, operationID, targetTenantIDs)
	}
	return &bulk.Operation{}, nil
}

func (s stubBulkService) Status(ctx context.Context, operationID string) (*bulk.Operation, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, operationID)
	}
	return &bulk.Operation{}, nil
}

func withOperationID(req *http.Request, operationID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("operationId", operationID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestBulkStart(t *testing.T) {
	svc := stubBulkService{
		startFn: func(_ context.Context, kind enums.BulkKind, productIDs []int64) (string, error) {
			if kind != enums.BulkKindCopy {
				t.Fatalf("unexpected kind %q", kind)
			}
			if len(productIDs) != 2 {
				t.Fatalf("unexpected ids %v", productIDs)
			}
			return "op-123", nil
		},
	}

	handler := BulkStart(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"copy","product_ids":[10,11]}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["operation_id"] != "op-123" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}

func TestBulkStartRejectsUnknownKind(t *testing.T) {
	handler := BulkStart(stubBulkService{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"purge","product_ids":[10]}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestBulkRunAllowsEmptyBody(t *testing.T) {
	svc := stubBulkService{
		runFn: func(_ context.Context, operationID string, targetTenantIDs []int64) (*bulk.Operation, error) {
			if operationID != "op-123" {
				t.Fatalf("unexpected operation id %q", operationID)
			}
			if targetTenantIDs != nil {
				t.Fatalf("expected nil targets, got %v", targetTenantIDs)
			}
			return &bulk.Operation{ID: operationID, Processed: 5, Total: 7, Status: enums.BulkStatusPending}, nil
		},
	}

	handler := BulkRun(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withOperationID(req, "op-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data bulk.Operation `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Processed != 5 || envelope.Data.Total != 7 {
		t.Fatalf("unexpected progress %+v", envelope.Data)
	}
}

func TestBulkRunForwardsTargets(t *testing.T) {
	svc := stubBulkService{
		runFn: func(_ context.Context, _ string, targetTenantIDs []int64) (*bulk.Operation, error) {
			if len(targetTenantIDs) != 2 || targetTenantIDs[0] != 2 || targetTenantIDs[1] != 3 {
				t.Fatalf("unexpected targets %v", targetTenantIDs)
			}
			return &bulk.Operation{}, nil
		},
	}

	handler := BulkRun(svc, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"target_tenant_ids":[2,3]}`))
	req = withOperationID(req, "op-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestBulkStatusExpired(t *testing.T) {
	svc := stubBulkService{
		statusFn: func(context.Context, string) (*bulk.Operation, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bulk operation not found or expired")
		},
	}

	handler := BulkStatus(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withOperationID(req, "op-gone")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
