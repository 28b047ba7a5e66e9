package media

import (
	"context"
	"path"
	"strings"

	"github.com/nmoreau/storesync-backend/pkg/db/models"
	"github.com/nmoreau/storesync-backend/pkg/types"
)

// VariantGenerator regenerates the size-variant map for a replicated
// attachment on its new tenant.
type VariantGenerator interface {
	Generate(ctx context.Context, source, target *models.Attachment, sourceTenantID, targetTenantID int64) (types.JSONMap, error)
}

type copyVariants struct {
	root  string
	files Files
}

// NewCopyVariantGenerator mirrors the source attachment's variant files onto
// the target tenant's subtree and returns the copied map.
func NewCopyVariantGenerator(root string, files Files) VariantGenerator {
	return &copyVariants{root: root, files: files}
}

func (g *copyVariants) Generate(ctx context.Context, source, target *models.Attachment, sourceTenantID, targetTenantID int64) (types.JSONMap, error) {
	if len(source.Variants) == 0 {
		return types.JSONMap{}, nil
	}

	dir := path.Dir(source.FilePath)
	out := types.JSONMap{}
	for size, fileName := range source.Variants {
		relative := fileName
		if dir != "." && !strings.Contains(fileName, "/") {
			relative = path.Join(dir, fileName)
		}
		src := PathFor(g.root, sourceTenantID, relative)
		dst := PathFor(g.root, targetTenantID, relative)
		if !g.files.Exists(src) {
			continue
		}
		if err := g.files.Copy(src, dst); err != nil {
			// derived files are best effort; the original already copied
			continue
		}
		out[size] = fileName
	}
	return out, nil
}
