package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/nmoreau/storesync-backend/internal/events"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/pagination"
)

// Summary is the dashboard view of recent replication activity.
type Summary struct {
	Days   []DayCount              `json:"days"`
	Recent []models.ActivityRecord `json:"recent"`
}

const recentEntries = 10

// Service records and reports replication activity.
type Service interface {
	Record(ctx context.Context, event events.ProductEvent) error
	Query(ctx context.Context, filters Filters, page pagination.Params) ([]models.ActivityRecord, int64, error)
	Summary(ctx context.Context, days int) (*Summary, error)
}

type service struct {
	repo ActivityRepository
	cap  int
	logg *logger.Logger
}

// NewService constructs the activity recorder.
func NewService(repo ActivityRepository, cap int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("activity repository required")
	}
	if cap <= 0 {
		return nil, fmt.Errorf("activity cap must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cap: cap, logg: logg}, nil
}

// Subscribe wires the recorder onto the event bus. Recording failures log;
// they never fail the replication that emitted the event.
func (s *service) Subscribe(bus *events.Bus) {
	bus.Subscribe(func(ctx context.Context, event events.ProductEvent) {
		if err := s.Record(ctx, event); err != nil {
			s.logg.Error(ctx, "failed to record activity", err)
		}
	})
}

// Record appends one audit entry and evicts the oldest rows past the cap.
func (s *service) Record(ctx context.Context, event events.ProductEvent) error {
	record := &models.ActivityRecord{
		Action:          event.Action,
		SourceTenantID:  event.SourceTenantID,
		SourceProductID: event.SourceProductID,
		TargetTenantID:  event.TargetTenantID,
		TargetProductID: event.TargetProductID,
		ProductTitle:    event.ProductTitle,
		ActorID:         event.ActorID,
		ActorEmail:      event.ActorEmail,
		Status:          "success",
		CreatedAt:       event.OccurredAt,
	}
	if _, err := s.repo.Append(ctx, record); err != nil {
		return err
	}
	return s.repo.Prune(ctx, s.cap)
}

func (s *service) Query(ctx context.Context, filters Filters, page pagination.Params) ([]models.ActivityRecord, int64, error) {
	return s.repo.Query(ctx, filters, page)
}

// Summary aggregates per-day counts over the window plus the most recent
// entries, the data behind the dashboard widget.
func (s *service) Summary(ctx context.Context, days int) (*Summary, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	counts, err := s.repo.CountByDay(ctx, since)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.repo.Query(ctx, Filters{}, pagination.Params{Limit: recentEntries})
	if err != nil {
		return nil, err
	}
	return &Summary{Days: counts, Recent: recent}, nil
}

// NewRecorder builds the service and subscribes it to the bus in one step.
func NewRecorder(repo ActivityRepository, cap int, logg *logger.Logger, bus *events.Bus) (Service, error) {
	svc, err := NewService(repo, cap, logg)
	if err != nil {
		return nil, err
	}
	if bus != nil {
		svc.(*service).Subscribe(bus)
	}
	return svc, nil
}
