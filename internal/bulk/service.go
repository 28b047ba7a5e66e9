package bulk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/storesync-backend/internal/replicate"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/metrics"
	"github.com/nmoreau/storesync-backend/pkg/redis"
)

// BatchSize is the number of source products consumed per RunBatch call.
const BatchSize = 5

type stateStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	BulkKey(operationID string) string
}

type linkLister interface {
	ListLinksForProduct(ctx context.Context, sourceTenantID, sourceProductID int64) ([]models.SyncLink, error)
}

// Result records one successful per-item replication inside a bulk run.
type Result struct {
	ProductID       int64 `json:"product_id"`
	TargetTenantID  int64 `json:"target_tenant_id"`
	TargetProductID int64 `json:"target_product_id"`
}

// Operation is the externally polled state of one bulk run. It lives in
// redis under a TTL; an abandoned operation silently expires.
type Operation struct {
	ID         string           `json:"id"`
	Kind       enums.BulkKind   `json:"kind"`
	ProductIDs []int64          `json:"product_ids"`
	Processed  int              `json:"processed"`
	Total      int              `json:"total"`
	Status     enums.BulkStatus `json:"status"`
	Errors     []string         `json:"errors"`
	Results    []Result         `json:"results"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Complete reports whether every source id has been consumed.
func (o *Operation) Complete() bool {
	return o.Status == enums.BulkStatusComplete
}

// Service drives client-polled batch replication.
type Service interface {
	Start(ctx context.Context, kind enums.BulkKind, productIDs []int64) (string, error)
	RunBatch(ctx context.Context, operationID string, targetTenantIDs []int64) (*Operation, error)
	Status(ctx context.Context, operationID string) (*Operation, error)
}

type service struct {
	store          stateStore
	engine         replicate.Engine
	links          linkLister
	logg           *logger.Logger
	metrics        *metrics.ReplicationMetrics
	sourceTenantID int64
	ttl            time.Duration
}

// NewService constructs the bulk batch driver.
func NewService(
	store stateStore,
	engine replicate.Engine,
	links linkLister,
	logg *logger.Logger,
	replicationMetrics *metrics.ReplicationMetrics,
	sourceTenantID int64,
	ttl time.Duration,
) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("state store required")
	}
	if engine == nil {
		return nil, fmt.Errorf("replication engine required")
	}
	if links == nil {
		return nil, fmt.Errorf("link lister required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sourceTenantID <= 0 {
		return nil, fmt.Errorf("source tenant id required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("operation ttl required")
	}
	return &service{
		store:          store,
		engine:         engine,
		links:          links,
		logg:           logg,
		metrics:        replicationMetrics,
		sourceTenantID: sourceTenantID,
		ttl:            ttl,
	}, nil
}

// Start persists a fresh pending operation and returns its id.
func (s *service) Start(ctx context.Context, kind enums.BulkKind, productIDs []int64) (string, error) {
	if !kind.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid bulk kind")
	}
	if len(productIDs) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product ids required")
	}

	op := &Operation{
		ID:         uuid.NewString(),
		Kind:       kind,
		ProductIDs: productIDs,
		Total:      len(productIDs),
		Status:     enums.BulkStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.save(ctx, op); err != nil {
		return "", err
	}
	return op.ID, nil
}

// RunBatch consumes the next slice of source ids. Per-item failures
// accumulate on the operation and never abort the batch; the operation
// completes once every source id has been consumed.
func (s *service) RunBatch(ctx context.Context, operationID string, targetTenantIDs []int64) (*Operation, error) {
	op, err := s.load(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op.Complete() {
		return op, nil
	}

	end := op.Processed + BatchSize
	if end > op.Total {
		end = op.Total
	}
	batch := op.ProductIDs[op.Processed:end]

	for _, productID := range batch {
		switch op.Kind {
		case enums.BulkKindCopy:
			s.copyOne(ctx, op, productID, targetTenantIDs)
		case enums.BulkKindUpdate:
			s.updateOne(ctx, op, productID)
		}
	}

	op.Processed = end
	if op.Processed >= op.Total {
		op.Status = enums.BulkStatusComplete
	}
	if err := s.save(ctx, op); err != nil {
		return nil, err
	}
	s.metrics.IncBulkBatch()
	return op, nil
}

// Status returns the current progress snapshot.
func (s *service) Status(ctx context.Context, operationID string) (*Operation, error) {
	return s.load(ctx, operationID)
}

func (s *service) copyOne(ctx context.Context, op *Operation, productID int64, targetTenantIDs []int64) {
	for _, tenantID := range targetTenantIDs {
		targetID, err := s.engine.Create(ctx, productID, tenantID)
		if err != nil {
			op.Errors = append(op.Errors, fmt.Sprintf("product %d tenant %d: %v", productID, tenantID, err))
			continue
		}
		op.Results = append(op.Results, Result{ProductID: productID, TargetTenantID: tenantID, TargetProductID: targetID})
	}
}

// updateOne refreshes every already-linked target of the product. Unlinked
// products are skipped without error.
func (s *service) updateOne(ctx context.Context, op *Operation, productID int64) {
	links, err := s.links.ListLinksForProduct(ctx, s.sourceTenantID, productID)
	if err != nil {
		op.Errors = append(op.Errors, fmt.Sprintf("product %d: %v", productID, err))
		return
	}
	for _, link := range links {
		if err := s.engine.Update(ctx, productID, link.TargetTenantID, link.TargetProductID); err != nil {
			op.Errors = append(op.Errors, fmt.Sprintf("product %d tenant %d: %v", productID, link.TargetTenantID, err))
			continue
		}
		op.Results = append(op.Results, Result{ProductID: productID, TargetTenantID: link.TargetTenantID, TargetProductID: link.TargetProductID})
	}
}

func (s *service) save(ctx context.Context, op *Operation) error {
	payload, err := json.Marshal(op)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding bulk operation")
	}
	if err := s.store.Set(ctx, s.store.BulkKey(op.ID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting bulk operation")
	}
	return nil
}

func (s *service) load(ctx context.Context, operationID string) (*Operation, error) {
	raw, err := s.store.Get(ctx, s.store.BulkKey(operationID))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bulk operation not found or expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading bulk operation")
	}
	var op Operation
	if err := json.Unmarshal([]byte(raw), &op); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decoding bulk operation")
	}
	return &op, nil
}
