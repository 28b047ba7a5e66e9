package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
)

type stubEngine struct {
	createFn func(ctx context.Context, sourceProductID, targetTenantID int64) (int64, error)
	updateFn func(ctx context.Context, sourceProductID, targetTenantID, targetProductID int64) error
}

func (s stubEngine) Create(ctx context.Context, sourceProductID, targetTenantID int64) (int64, error) {
	if s.createFn != nil {
		return s.createFn(ctx, sourceProductID, targetTenantID)
	}
	return 0, nil
}

func (s stubEngine) Update(ctx context.Context, sourceProductID, targetTenantID, targetProductID int64) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, sourceProductID, targetTenantID, targetProductID)
	}
	return nil
}

type stubLinkRepo struct {
	getFn func(ctx context.Context, sourceTenantID, sourceProductID, targetTenantID int64) (*models.SyncLink, error)
}

func (s stubLinkRepo) GetLink(ctx context.Context, sourceTenantID, sourceProductID, targetTenantID int64) (*models.SyncLink, error) {
	if s.getFn != nil {
		return s.getFn(ctx, sourceTenantID, sourceProductID, targetTenantID)
	}
	return nil, nil
}

func (s stubLinkRepo) ListLinksForProduct(context.Context, int64, int64) ([]models.SyncLink, error) {
	return nil, nil
}

func (s stubLinkRepo) ListLinksBySourceTenant(context.Context, int64) ([]models.SyncLink, error) {
	return nil, nil
}

func (s stubLinkRepo) CreateLink(_ context.Context, link *models.SyncLink) (*models.SyncLink, error) {
	return link, nil
}

func (s stubLinkRepo) TouchLink(context.Context, int64, time.Time) error { return nil }

func (s stubLinkRepo) DeleteLink(context.Context, int64) error { return nil }

func withProductID(req *http.Request, productID int64) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("productId", strconv.FormatInt(productID, 10))
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestSyncCopyProduct(t *testing.T) {
	engine := stubEngine{
		createFn: func(_ context.Context, sourceProductID, targetTenantID int64) (int64, error) {
			if sourceProductID != 10 || targetTenantID != 3 {
				t.Fatalf("unexpected args %d %d", sourceProductID, targetTenantID)
			}
			return 77, nil
		},
	}

	handler := SyncCopyProduct(engine, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"target_tenant_id":3}`))
	req = withProductID(req, 10)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["target_product_id"] != 77 {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}

func TestSyncCopyProductRejectsBadBody(t *testing.T) {
	handler := SyncCopyProduct(stubEngine{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"target_tenant_id":0}`))
	req = withProductID(req, 10)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestSyncCopyProductConflictPassesThrough(t *testing.T) {
	engine := stubEngine{
		createFn: func(context.Context, int64, int64) (int64, error) {
			return 0, pkgerrors.New(pkgerrors.CodeConflict, "product already replicated to target tenant")
		},
	}

	handler := SyncCopyProduct(engine, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"target_tenant_id":3}`))
	req = withProductID(req, 10)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected error code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "product already replicated to target tenant" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestSyncUpdateProductResolvesLink(t *testing.T) {
	var updated bool
	engine := stubEngine{
		updateFn: func(_ context.Context, sourceProductID, targetTenantID, targetProductID int64) error {
			if sourceProductID != 10 || targetTenantID != 3 || targetProductID != 77 {
				t.Fatalf("unexpected args %d %d %d", sourceProductID, targetTenantID, targetProductID)
			}
			updated = true
			return nil
		},
	}
	links := stubLinkRepo{
		getFn: func(_ context.Context, sourceTenantID, sourceProductID, targetTenantID int64) (*models.SyncLink, error) {
			if sourceTenantID != 1 {
				t.Fatalf("unexpected source tenant %d", sourceTenantID)
			}
			return &models.SyncLink{ID: 5, SourceTenantID: 1, SourceProductID: sourceProductID, TargetTenantID: targetTenantID, TargetProductID: 77}, nil
		},
	}

	handler := SyncUpdateProduct(engine, links, 1, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"target_tenant_id":3}`))
	req = withProductID(req, 10)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !updated {
		t.Fatal("expected engine update to run")
	}
}

func TestSyncUpdateProductUnlinked(t *testing.T) {
	handler := SyncUpdateProduct(stubEngine{}, stubLinkRepo{}, 1, nil)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"target_tenant_id":3}`))
	req = withProductID(req, 10)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
