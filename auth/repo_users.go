package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the Credential Store repository.
type Users interface {
	repository.Repository[*User]

	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, user *User) error
	InvalidateSessions(ctx context.Context, user *User) error
	InvalidateSessionsTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

// FindByEmailTx resolves an identity by email, case-insensitively.
func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("lower(?TableAlias.email) = lower(?)", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.FindByIDTx(ctx, a.db, id)
}

func (a *users) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MarkVerifiedTx flips the verified flag once the OTP challenge has been
// consumed. Runs in the caller's transaction.
func (a *users) MarkVerifiedTx(ctx context.Context, tx bun.IDB, user *User) error {
	user.EmailVerified = true
	now := time.Now()
	user.UpdatedAt = &now

	_, err := tx.NewUpdate().
		Model(user).
		Column("is_email_verified", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (a *users) InvalidateSessions(ctx context.Context, user *User) error {
	return a.InvalidateSessionsTx(ctx, a.db, user)
}

// InvalidateSessionsTx rotates the session epoch. Every assertion minted
// before this call fails the guard's epoch comparison afterwards.
func (a *users) InvalidateSessionsTx(ctx context.Context, tx bun.IDB, user *User) error {
	user.RegenerateJTI()
	now := time.Now()
	user.UpdatedAt = &now

	_, err := tx.NewUpdate().
		Model(user).
		Column("jti", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

// IsRecordNotFound reports whether err means the row does not exist.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}
