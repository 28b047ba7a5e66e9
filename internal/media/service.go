package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/nmoreau/storesync-backend/internal/tenancy"
	"github.com/nmoreau/storesync-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/storesync-backend/pkg/errors"
	"github.com/nmoreau/storesync-backend/pkg/logger"
	"github.com/nmoreau/storesync-backend/pkg/metrics"
)

type productReader interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// ReplicateOptions tunes a single media replication.
type ReplicateOptions struct {
	// Force deletes and recreates an existing attachment at the same file
	// path. Without it an existing attachment is returned unchanged.
	Force bool
	// ReuseIfFeaturedFor short-circuits the force path when the target
	// product's current featured image already sits at the same file path.
	// Zero disables the check.
	ReuseIfFeaturedFor int64
}

// Replica pairs a source attachment ID with its replicated counterpart.
type Replica struct {
	SourceID   int64
	Attachment *models.Attachment
}

// Service replicates media library entries across tenants.
type Service interface {
	Replicate(ctx context.Context, attachmentID, sourceTenantID, targetTenantID int64, opts ReplicateOptions) (*models.Attachment, error)
	ReplicateMany(ctx context.Context, attachmentIDs []int64, sourceTenantID, targetTenantID int64, opts ReplicateOptions) ([]Replica, error)
	Remove(ctx context.Context, attachmentID int64) error
}

type service struct {
	repo     AttachmentRepository
	products productReader
	files    Files
	variants VariantGenerator
	switcher *tenancy.Switcher
	root     string
	logg     *logger.Logger
	metrics  *metrics.ReplicationMetrics
}

// NewService constructs the media replicator.
func NewService(
	repo AttachmentRepository,
	products productReader,
	files Files,
	variants VariantGenerator,
	switcher *tenancy.Switcher,
	root string,
	logg *logger.Logger,
	replicationMetrics *metrics.ReplicationMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("attachment repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if files == nil {
		return nil, fmt.Errorf("files required")
	}
	if variants == nil {
		return nil, fmt.Errorf("variant generator required")
	}
	if switcher == nil {
		return nil, fmt.Errorf("tenant switcher required")
	}
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("uploads root required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		products: products,
		files:    files,
		variants: variants,
		switcher: switcher,
		root:     root,
		logg:     logg,
		metrics:  replicationMetrics,
	}, nil
}

// Replicate copies one attachment from the source tenant to the target
// tenant, deduplicating by relative file path. An existing attachment at the
// same path is returned unchanged unless opts.Force is set, in which case it
// is deleted and recreated; the current featured image named by
// opts.ReuseIfFeaturedFor survives even a forced run.
func (s *service) Replicate(ctx context.Context, attachmentID, sourceTenantID, targetTenantID int64, opts ReplicateOptions) (*models.Attachment, error) {
	var source *models.Attachment
	err := s.switcher.RunAs(ctx, sourceTenantID, func(ctx context.Context) error {
		loaded, err := s.repo.GetAttachment(ctx, attachmentID)
		if err != nil {
			return err
		}
		if !s.files.Exists(PathFor(s.root, sourceTenantID, loaded.FilePath)) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "source file missing on disk")
		}
		source = loaded
		return nil
	})
	if err != nil {
		s.metrics.IncMediaCopy("failed")
		return nil, err
	}

	var (
		replicated *models.Attachment
		reused     bool
	)
	err = s.switcher.RunAs(ctx, targetTenantID, func(ctx context.Context) error {
		existing, err := s.repo.FindByPath(ctx, source.FilePath)
		if err != nil {
			return err
		}

		if existing != nil {
			ok, err := s.reuseIfFeatured(ctx, existing, opts)
			if err != nil {
				return err
			}
			if ok || !opts.Force {
				if !ok {
					s.metrics.IncMediaCopy("reused")
				}
				replicated, reused = existing, true
				return nil
			}
			if err := s.deleteExisting(ctx, existing, targetTenantID); err != nil {
				return err
			}
		}

		src := PathFor(s.root, sourceTenantID, source.FilePath)
		dst := PathFor(s.root, targetTenantID, source.FilePath)
		if err := s.files.Copy(src, dst); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "copying media file")
		}

		created, err := s.repo.CreateAttachment(ctx, &models.Attachment{
			FilePath:  source.FilePath,
			Title:     source.Title,
			AltText:   source.AltText,
			MimeType:  source.MimeType,
			SizeBytes: source.SizeBytes,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting replicated attachment")
		}

		variants, err := s.variants.Generate(ctx, source, created, sourceTenantID, targetTenantID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "attachment_id", created.ID), "variant generation failed")
		} else if len(variants) > 0 {
			created.Variants = variants
			if created, err = s.repo.UpdateAttachment(ctx, created); err != nil {
				return err
			}
		}

		replicated = created
		return nil
	})
	if err != nil {
		s.metrics.IncMediaCopy("failed")
		return nil, err
	}

	if !reused {
		s.metrics.IncMediaCopy("copied")
	}
	return replicated, nil
}

// ReplicateMany replicates each attachment in order, skipping failures. The
// returned slice holds successes only, input order preserved.
func (s *service) ReplicateMany(ctx context.Context, attachmentIDs []int64, sourceTenantID, targetTenantID int64, opts ReplicateOptions) ([]Replica, error) {
	replicas := make([]Replica, 0, len(attachmentIDs))
	for _, id := range attachmentIDs {
		attachment, err := s.Replicate(ctx, id, sourceTenantID, targetTenantID, opts)
		if err != nil {
			scoped := s.logg.WithField(ctx, "attachment_id", id)
			s.logg.Warn(scoped, "skipping failed media replication")
			continue
		}
		replicas = append(replicas, Replica{SourceID: id, Attachment: attachment})
	}
	return replicas, nil
}

// Remove deletes an attachment row with its file and derived variants under
// the tenant already carried on the context.
func (s *service) Remove(ctx context.Context, attachmentID int64) error {
	tenantID, ok := tenancy.Current(ctx)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInternal, "no tenant scope on context")
	}
	existing, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	return s.deleteExisting(ctx, existing, tenantID)
}

func (s *service) reuseIfFeatured(ctx context.Context, existing *models.Attachment, opts ReplicateOptions) (bool, error) {
	if opts.ReuseIfFeaturedFor <= 0 {
		return false, nil
	}
	product, err := s.products.GetProduct(ctx, opts.ReuseIfFeaturedFor)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	if product.FeaturedImageID != nil && *product.FeaturedImageID == existing.ID {
		s.metrics.IncMediaCopy("reused")
		return true, nil
	}
	return false, nil
}

func (s *service) deleteExisting(ctx context.Context, existing *models.Attachment, tenantID int64) error {
	if err := s.repo.DeleteAttachment(ctx, existing.ID); err != nil {
		return err
	}
	// files are removed best effort, the row is authoritative
	_ = s.files.Remove(PathFor(s.root, tenantID, existing.FilePath))
	dir := path.Dir(existing.FilePath)
	for _, fileName := range existing.Variants {
		relative := fileName
		if dir != "." && !strings.Contains(fileName, "/") {
			relative = path.Join(dir, fileName)
		}
		_ = s.files.Remove(PathFor(s.root, tenantID, relative))
	}
	return nil
}
