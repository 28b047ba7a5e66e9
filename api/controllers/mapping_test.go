package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nmoreau/storesync-backend/internal/mapping"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/pagination"
)

type stubMappingService struct {
	overviewFn func(ctx context.Context, page pagination.Params) (*mapping.OverviewPage, error)
	statusFn   func(ctx context.Context, productID int64) (*mapping.Row, error)
	exportFn   func(ctx context.Context) ([]byte, error)
}

func (s stubMappingService) Overview(ctx context.Context, page pagination.Params) (*mapping.OverviewPage, error) {
	if s.overviewFn != nil {
		return s.overviewFn(ctx, page)
	}
	return &mapping.OverviewPage{}, nil
}

func (s stubMappingService) CheckStatus(ctx context.Context, productID int64) (*mapping.Row, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, productID)
	}
	return &mapping.Row{}, nil
}

func (s stubMappingService) Export(ctx context.Context) ([]byte, error) {
	if s.exportFn != nil {
		return s.exportFn(ctx)
	}
	return nil, nil
}

func TestMappingOverview(t *testing.T) {
	now := time.Now().UTC()
	svc := stubMappingService{
		overviewFn: func(_ context.Context, page pagination.Params) (*mapping.OverviewPage, error) {
			if page.Limit != 10 {
				t.Fatalf("unexpected limit %d", page.Limit)
			}
			return &mapping.OverviewPage{
				Rows: []mapping.Row{{
					ProductID: 10,
					Title:     "Hoodie",
					Targets: []mapping.TargetStatus{{
						TargetTenantID:  3,
						TargetProductID: 77,
						LastSyncedAt:    &now,
					}},
				}},
				Total: 1,
			}, nil
		},
	}

	handler := MappingOverview(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data mapping.OverviewPage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != 1 || envelope.Data.Rows[0].ProductID != 10 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestMappingStatusNotFound(t *testing.T) {
	svc := stubMappingService{
		statusFn: func(context.Context, int64) (*mapping.Row, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		},
	}

	handler := MappingStatus(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = withProductID(req, 999)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestMappingExportWritesCSV(t *testing.T) {
	csv := "product_id,title,sku,target_tenant_id,target_product_id,last_synced_at,stale\n10,Hoodie,HOOD-1,3,77,2026-08-01T00:00:00Z,false\n"
	svc := stubMappingService{
		exportFn: func(context.Context) ([]byte, error) {
			return []byte(csv), nil
		},
	}

	handler := MappingExport(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), "product-mapping.csv") {
		t.Fatalf("unexpected disposition %q", resp.Header().Get("Content-Disposition"))
	}
	if resp.Body.String() != csv {
		t.Fatalf("unexpected body %q", resp.Body.String())
	}
}
