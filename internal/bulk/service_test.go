package bulk

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/redis"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "bulk-test", Level: zerolog.Disabled})
}

type stubStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newStubStore() *stubStore {
	return &stubStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	default:
		s.data[key] = fmt.Sprint(v)
	}
	s.ttls[key] = ttl
	return nil
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return value, nil
}

func (s *stubStore) BulkKey(operationID string) string {
	return "ss:bulk:" + operationID
}

type stubEngine struct {
	nextID    int64
	created   []int64
	updated   []int64
	failIDs   map[int64]bool
}

func newStubEngine() *stubEngine {
	return &stubEngine{nextID: 5000, failIDs: map[int64]bool{}}
}

func (e *stubEngine) Create(ctx context.Context, sourceProductID, targetTenantID int64) (int64, error) {
	if e.failIDs[sourceProductID] {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product is not variable")
	}
	e.nextID++
	e.created = append(e.created, sourceProductID)
	return e.nextID, nil
}

func (e *stubEngine) Update(ctx context.Context, sourceProductID, targetTenantID, targetProductID int64) error {
	if e.failIDs[sourceProductID] {
		return pkgerrors.New(pkgerrors.CodeNotFound, "target product missing")
	}
	e.updated = append(e.updated, sourceProductID)
	return nil
}

type stubLinks struct {
	linked map[int64][]models.SyncLink
}

func (l *stubLinks) ListLinksForProduct(ctx context.Context, sourceTenantID, sourceProductID int64) ([]models.SyncLink, error) {
	return l.linked[sourceProductID], nil
}

func newTestService(t *testing.T, store *stubStore, engine *stubEngine, links *stubLinks) Service {
	t.Helper()
	if links == nil {
		links = &stubLinks{linked: map[int64][]models.SyncLink{}}
	}
	svc, err := NewService(store, engine, links, newTestLogger(), nil, 1, time.Hour)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestStartPersistsPendingOperation(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	svc := newTestService(t, store, newStubEngine(), nil)

	id, err := svc.Start(context.Background(), enums.BulkKindCopy, []int64{101, 102})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id == "" {
		t.Fatal("operation id required")
	}

	op, err := svc.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if op.Status != enums.BulkStatusPending || op.Total != 2 || op.Processed != 0 {
		t.Fatalf("unexpected initial state: %+v", op)
	}
	if ttl := store.ttls[store.BulkKey(id)]; ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestStartRejectsBadInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubStore(), newStubEngine(), nil)

	if _, err := svc.Start(context.Background(), enums.BulkKind("purge"), []int64{1}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for kind, got %v", err)
	}
	if _, err := svc.Start(context.Background(), enums.BulkKindCopy, nil); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty ids, got %v", err)
	}
}

func TestRunBatchConsumesFiveThenCompletes(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	engine := newStubEngine()
	svc := newTestService(t, store, engine, nil)

	id, err := svc.Start(context.Background(), enums.BulkKindCopy, []int64{101, 102, 103, 104, 105, 106, 107})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	first, err := svc.RunBatch(context.Background(), id, []int64{3})
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if first.Processed != 5 || first.Complete() {
		t.Fatalf("expected processed=5 incomplete, got %+v", first)
	}

	second, err := svc.RunBatch(context.Background(), id, []int64{3})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if second.Processed != 7 || !second.Complete() {
		t.Fatalf("expected processed=7 complete, got %+v", second)
	}
	if len(engine.created) != 7 {
		t.Fatalf("expected 7 creates, got %d", len(engine.created))
	}
	if len(second.Results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(second.Results))
	}
}

func TestRunBatchFansOutAcrossTargetTenants(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	engine := newStubEngine()
	svc := newTestService(t, store, engine, nil)

	id, _ := svc.Start(context.Background(), enums.BulkKindCopy, []int64{101, 102})
	op, err := svc.RunBatch(context.Background(), id, []int64{3, 4})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	// processed advances by source ids, not id-tenant pairs
	if op.Processed != 2 || !op.Complete() {
		t.Fatalf("unexpected progress: %+v", op)
	}
	if len(op.Results) != 4 {
		t.Fatalf("expected 4 results for 2 ids x 2 tenants, got %d", len(op.Results))
	}
}

func TestRunBatchAccumulatesErrorsWithoutAborting(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	engine := newStubEngine()
	engine.failIDs[102] = true
	svc := newTestService(t, store, engine, nil)

	id, _ := svc.Start(context.Background(), enums.BulkKindCopy, []int64{101, 102, 103})
	op, err := svc.RunBatch(context.Background(), id, []int64{3})
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if !op.Complete() || op.Processed != 3 {
		t.Fatalf("errors must not stall progress: %+v", op)
	}
	if len(op.Errors) != 1 || len(op.Results) != 2 {
		t.Fatalf("expected 1 error and 2 results, got %+v", op)
	}
}

func TestRunBatchUpdateSkipsUnlinked(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	engine := newStubEngine()
	links := &stubLinks{linked: map[int64][]models.SyncLink{
		101: {{SourceTenantID: 1, SourceProductID: 101, TargetTenantID: 3, TargetProductID: 900}},
	}}
	svc := newTestService(t, store, engine, links)

	id, _ := svc.Start(context.Background(), enums.BulkKindUpdate, []int64{101, 102})
	op, err := svc.RunBatch(context.Background(), id, nil)
	if err != nil {
		t.Fatalf("run batch: %v", err)
	}
	if !op.Complete() || op.Processed != 2 {
		t.Fatalf("unexpected progress: %+v", op)
	}
	if len(engine.updated) != 1 || engine.updated[0] != 101 {
		t.Fatalf("only the linked product must update: %v", engine.updated)
	}
	if len(op.Errors) != 0 {
		t.Fatalf("unlinked products skip silently: %v", op.Errors)
	}
}

func TestRunBatchExpiredOperation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubStore(), newStubEngine(), nil)
	_, err := svc.RunBatch(context.Background(), "f2b9c2a8-missing", nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for expired operation, got %v", err)
	}
}

func TestRunBatchOnCompleteOperationIsNoOp(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	engine := newStubEngine()
	svc := newTestService(t, store, engine, nil)

	id, _ := svc.Start(context.Background(), enums.BulkKindCopy, []int64{101})
	if _, err := svc.RunBatch(context.Background(), id, []int64{3}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	op, err := svc.RunBatch(context.Background(), id, []int64{3})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if len(engine.created) != 1 || !op.Complete() {
		t.Fatalf("complete operation must not replicate again: %+v", op)
	}
}
