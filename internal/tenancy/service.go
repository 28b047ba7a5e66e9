package tenancy

import (
	"context"
	"fmt"
	"strings"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
)

// Service exposes the tenant directory.
type Service interface {
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	ListTargets(ctx context.Context, sourceTenantID int64) ([]models.Tenant, error)
	CreateTenant(ctx context.Context, input CreateTenantInput) (*models.Tenant, error)
}

type service struct {
	repo TenantRepository
	logg *logger.Logger
}

// NewService constructs the tenant directory service.
func NewService(repo TenantRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// CreateTenantInput models the payload for registering a new tenant.
type CreateTenantInput struct {
	Slug    string `json:"slug" validate:"required,min=2,max=64"`
	Name    string `json:"name" validate:"required,min=2,max=255"`
	BaseURL string `json:"base_url" validate:"required,url"`
}

func (s *service) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id must be positive")
	}
	return s.repo.GetTenant(ctx, id)
}

func (s *service) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

// ListTargets returns every active tenant except the source, i.e. the set a
// product on sourceTenantID can replicate to.
func (s *service) ListTargets(ctx context.Context, sourceTenantID int64) ([]models.Tenant, error) {
	tenants, err := s.repo.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]models.Tenant, 0, len(tenants))
	for _, tenant := range tenants {
		if tenant.ID == sourceTenantID || !tenant.IsActive {
			continue
		}
		targets = append(targets, tenant)
	}
	return targets, nil
}

func (s *service) CreateTenant(ctx context.Context, input CreateTenantInput) (*models.Tenant, error) {
	slug := strings.TrimSpace(strings.ToLower(input.Slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if _, err := s.repo.GetTenantBySlug(ctx, slug); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "tenant slug already in use")
	} else if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	tenant := &models.Tenant{
		Slug:     slug,
		Name:     strings.TrimSpace(input.Name),
		BaseURL:  strings.TrimSpace(input.BaseURL),
		IsActive: true,
	}
	created, err := s.repo.CreateTenant(ctx, tenant)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithTenantID(ctx, created.ID), "tenant registered")
	return created, nil
}
