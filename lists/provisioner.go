package lists

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Provisioner creates the default lists that every account starts with.
// It satisfies auth.ListProvisioner so account creation can provision
// lists inside its own transaction without importing this package.
type Provisioner struct{}

func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// EnsureDefaultsTx inserts any missing default list for the owner.
// Safe to call more than once; existing rows are left alone.
func (p *Provisioner) EnsureDefaultsTx(ctx context.Context, tx bun.IDB, ownerID uuid.UUID) error {
	var existing []string
	err := tx.NewSelect().
		Model((*List)(nil)).
		Column("name").
		Where("user_id = ?", ownerID).
		Where("type = ?", TypeDefault).
		Scan(ctx, &existing)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load default lists")
	}

	have := map[string]bool{}
	for _, name := range existing {
		have[name] = true
	}

	now := time.Now()
	for _, name := range DefaultNames {
		if have[name] {
			continue
		}
		record := &List{
			ID:          uuid.New(),
			UserID:      ownerID,
			Name:        name,
			Description: fmt.Sprintf("Your %s collection", strings.ReplaceAll(name, "_", " ")),
			Type:        TypeDefault,
			Private:     true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create default list").
				WithMetadata(map[string]any{"name": name})
		}
	}

	return nil
}
