package mapping

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/pagination"
)

type productLister interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProductsByKind(ctx context.Context, kind enums.ProductKind, page pagination.Params) ([]models.Product, int64, error)
}

type linkLister interface {
	ListLinksForProduct(ctx context.Context, sourceTenantID, sourceProductID int64) ([]models.SyncLink, error)
}

// TargetStatus is one product's replication state on one target tenant.
type TargetStatus struct {
	TargetTenantID  int64      `json:"target_tenant_id"`
	TargetProductID int64      `json:"target_product_id"`
	LastSyncedAt    *time.Time `json:"last_synced_at"`
	Stale           bool       `json:"stale"`
}

// Row maps one source product to its replicas across the network.
type Row struct {
	ProductID int64          `json:"product_id"`
	Title     string         `json:"title"`
	SKU       string         `json:"sku"`
	Targets   []TargetStatus `json:"targets"`
}

// OverviewPage is one page of the network sync matrix.
type OverviewPage struct {
	Rows  []Row `json:"rows"`
	Total int64 `json:"total"`
}

// Service reports the network-wide sync matrix for the source tenant's
// variable products.
type Service interface {
	Overview(ctx context.Context, page pagination.Params) (*OverviewPage, error)
	CheckStatus(ctx context.Context, productID int64) (*Row, error)
	Export(ctx context.Context) ([]byte, error)
}

type service struct {
	products       productLister
	links          linkLister
	switcher       *tenancy.Switcher
	logg           *logger.Logger
	sourceTenantID int64
}

// NewService constructs the mapping reporter.
func NewService(products productLister, links linkLister, switcher *tenancy.Switcher, logg *logger.Logger, sourceTenantID int64) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if links == nil {
		return nil, fmt.Errorf("link lister required")
	}
	if switcher == nil {
		return nil, fmt.Errorf("tenant switcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sourceTenantID <= 0 {
		return nil, fmt.Errorf("source tenant id required")
	}
	return &service{
		products:       products,
		links:          links,
		switcher:       switcher,
		logg:           logg,
		sourceTenantID: sourceTenantID,
	}, nil
}

// Overview pages through the source tenant's variable products with their
// per-tenant sync state.
func (s *service) Overview(ctx context.Context, page pagination.Params) (*OverviewPage, error) {
	var out *OverviewPage
	err := s.switcher.RunAs(ctx, s.sourceTenantID, func(ctx context.Context) error {
		products, total, err := s.products.ListProductsByKind(ctx, enums.ProductKindVariable, page)
		if err != nil {
			return err
		}
		rows := make([]Row, 0, len(products))
		for _, product := range products {
			row, err := s.rowFor(ctx, product)
			if err != nil {
				return err
			}
			rows = append(rows, *row)
		}
		out = &OverviewPage{Rows: rows, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CheckStatus reports one source product's replication state.
func (s *service) CheckStatus(ctx context.Context, productID int64) (*Row, error) {
	var row *Row
	err := s.switcher.RunAs(ctx, s.sourceTenantID, func(ctx context.Context) error {
		product, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		row, err = s.rowFor(ctx, *product)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Export renders the full matrix as CSV, one line per (product, target) pair.
func (s *service) Export(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{"product_id", "title", "sku", "target_tenant_id", "target_product_id", "last_synced_at", "stale"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	page := pagination.Params{Limit: pagination.MaxLimit}
	for {
		overview, err := s.Overview(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, row := range overview.Rows {
			if len(row.Targets) == 0 {
				record := []string{strconv.FormatInt(row.ProductID, 10), row.Title, row.SKU, "", "", "", ""}
				if err := writer.Write(record); err != nil {
					return nil, err
				}
				continue
			}
			for _, target := range row.Targets {
				syncedAt := ""
				if target.LastSyncedAt != nil {
					syncedAt = target.LastSyncedAt.UTC().Format(time.RFC3339)
				}
				record := []string{
					strconv.FormatInt(row.ProductID, 10),
					row.Title,
					row.SKU,
					strconv.FormatInt(target.TargetTenantID, 10),
					strconv.FormatInt(target.TargetProductID, 10),
					syncedAt,
					strconv.FormatBool(target.Stale),
				}
				if err := writer.Write(record); err != nil {
					return nil, err
				}
			}
		}
		if !pagination.HasMore(overview.Total, page) {
			break
		}
		page.Offset += page.Limit
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rowFor assembles one product's row. Staleness means the source changed
// after the last sync to that target.
func (s *service) rowFor(ctx context.Context, product models.Product) (*Row, error) {
	links, err := s.links.ListLinksForProduct(ctx, s.sourceTenantID, product.ID)
	if err != nil {
		return nil, err
	}
	row := &Row{ProductID: product.ID, Title: product.Title, SKU: product.SKU}
	for _, link := range links {
		status := TargetStatus{
			TargetTenantID:  link.TargetTenantID,
			TargetProductID: link.TargetProductID,
			LastSyncedAt:    link.LastSyncedAt,
		}
		if link.LastSyncedAt == nil || product.UpdatedAt.After(*link.LastSyncedAt) {
			status.Stale = true
		}
		row.Targets = append(row.Targets, status)
	}
	return row, nil
}
