package tenancy

import (
	"context"
	"testing"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
)

type stubTenantRepo struct {
	tenants []models.Tenant
	created *models.Tenant
}

func (s *stubTenantRepo) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	for i := range s.tenants {
		if s.tenants[i].ID == id {
			return &s.tenants[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
}

func (s *stubTenantRepo) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	for i := range s.tenants {
		if s.tenants[i].Slug == slug {
			return &s.tenants[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tenant not found")
}

func (s *stubTenantRepo) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	return s.tenants, nil
}

func (s *stubTenantRepo) CreateTenant(ctx context.Context, tenant *models.Tenant) (*models.Tenant, error) {
	tenant.ID = int64(len(s.tenants) + 1)
	s.created = tenant
	s.tenants = append(s.tenants, *tenant)
	return tenant, nil
}

func TestListTargetsExcludesSourceAndInactive(t *testing.T) {
	t.Parallel()

	repo := &stubTenantRepo{tenants: []models.Tenant{
		{ID: 1, Slug: "main", IsActive: true},
		{ID: 2, Slug: "outlet", IsActive: true},
		{ID: 3, Slug: "archived", IsActive: false},
	}}
	svc, err := NewService(repo, newTestLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	targets, err := svc.ListTargets(context.Background(), 1)
	if err != nil {
		t.Fatalf("list targets: %v", err)
	}
	if len(targets) != 1 || targets[0].ID != 2 {
		t.Fatalf("unexpected targets %+v", targets)
	}
}

func TestCreateTenantRejectsDuplicateSlug(t *testing.T) {
	t.Parallel()

	repo := &stubTenantRepo{tenants: []models.Tenant{{ID: 1, Slug: "main", IsActive: true}}}
	svc, _ := NewService(repo, newTestLogger())

	_, err := svc.CreateTenant(context.Background(), CreateTenantInput{
		Slug:    "Main",
		Name:    "Main",
		BaseURL: "https://main.example.com",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateTenantNormalizesSlug(t *testing.T) {
	t.Parallel()

	repo := &stubTenantRepo{}
	svc, _ := NewService(repo, newTestLogger())

	tenant, err := svc.CreateTenant(context.Background(), CreateTenantInput{
		Slug:    " Outlet ",
		Name:    "Outlet",
		BaseURL: "https://outlet.example.com",
	})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	if tenant.Slug != "outlet" {
		t.Fatalf("expected normalized slug, got %q", tenant.Slug)
	}
}

func TestGetTenantValidatesID(t *testing.T) {
	t.Parallel()

	svc, _ := NewService(&stubTenantRepo{}, newTestLogger())
	if _, err := svc.GetTenant(context.Background(), 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
