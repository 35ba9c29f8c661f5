package lists

import (
	"context"
	"database/sql"
	"errors"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Lists interface {
	repository.Repository[*List]
	FindOwned(ctx context.Context, ownerID uuid.UUID, listType string) ([]*List, error)
	FindOwnedByID(ctx context.Context, ownerID, id uuid.UUID, listType string) (*List, error)
	DeleteOwned(ctx context.Context, record *List) error
}

func NewLists(db *bun.DB) Lists {
	handlers := repository.ModelHandlers[*List]{
		NewRecord: func() *List {
			return &List{}
		},
		GetID: func(record *List) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *List, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
	}
	return &listsRepo{
		Repository: repository.NewRepository[*List](db, handlers),
		db:         db,
	}
}

type listsRepo struct {
	repository.Repository[*List]
	db *bun.DB
}

func (r *listsRepo) FindOwned(ctx context.Context, ownerID uuid.UUID, listType string) ([]*List, error) {
	var records []*List
	err := r.db.NewSelect().
		Model(&records).
		Where("user_id = ?", ownerID).
		Where("type = ?", listType).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *listsRepo) FindOwnedByID(ctx context.Context, ownerID, id uuid.UUID, listType string) (*List, error) {
	record := &List{}
	err := r.db.NewSelect().
		Model(record).
		Where("lst.id = ?", id).
		Where("user_id = ?", ownerID).
		Where("type = ?", listType).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *listsRepo) DeleteOwned(ctx context.Context, record *List) error {
	_, err := r.db.NewDelete().
		Model(record).
		Where("id = ?", record.ID).
		Where("user_id = ?", record.UserID).
		Exec(ctx)
	return err
}

func IsRecordNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}
