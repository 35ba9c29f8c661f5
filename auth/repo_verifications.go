package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Verifications is the Verification Ledger repository. At most one challenge
// row exists per identity; re-registration rewrites it instead of inserting.
type Verifications interface {
	repository.Repository[*UserVerification]

	FindByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*UserVerification, error)
	IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, ttl time.Duration) (*UserVerification, error)
	RegenerateTx(ctx context.Context, tx bun.IDB, v *UserVerification, ttl time.Duration) error
	ConsumeTx(ctx context.Context, tx bun.IDB, v *UserVerification) error
}

type verifications struct {
	repository.Repository[*UserVerification]
	db *bun.DB
}

var _ Verifications = (*verifications)(nil)

func NewVerificationsRepository(db *bun.DB) Verifications {
	repo := repository.NewRepository[*UserVerification](db, repository.ModelHandlers[*UserVerification]{
		NewRecord: func() *UserVerification { return &UserVerification{} },
		GetID: func(v *UserVerification) uuid.UUID {
			if v == nil {
				return uuid.Nil
			}
			return v.ID
		},
		SetID: func(v *UserVerification, id uuid.UUID) {
			if v != nil {
				v.ID = id
			}
		},
		GetIdentifier: func() string {
			return "user_id"
		},
	})

	return &verifications{
		Repository: repo,
		db:         db,
	}
}

func (r *verifications) FindByUserTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*UserVerification, error) {
	record := &UserVerification{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// IssueTx creates the challenge for an identity: fresh random code, expiry
// now + ttl, unconsumed.
func (r *verifications) IssueTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, ttl time.Duration) (*UserVerification, error) {
	code, err := GenerateOTP()
	if err != nil {
		return nil, err
	}

	record := &UserVerification{
		ID:           uuid.New(),
		UserID:       userID,
		OTPCode:      code,
		OTPExpiresAt: time.Now().Add(ttl),
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// RegenerateTx replaces code and expiry in place and resets the consumed
// state. The row count never grows on repeated registration attempts.
func (r *verifications) RegenerateTx(ctx context.Context, tx bun.IDB, v *UserVerification, ttl time.Duration) error {
	code, err := GenerateOTP()
	if err != nil {
		return err
	}

	v.OTPCode = code
	v.OTPExpiresAt = time.Now().Add(ttl)
	v.Verified = false
	v.VerifiedAt = nil
	now := time.Now()
	v.UpdatedAt = &now

	_, err = tx.NewUpdate().
		Model(v).
		Column("otp_code", "otp_expires_at", "verified", "verified_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

// ConsumeTx marks the challenge used. Idempotent: consuming a consumed
// challenge leaves the original verified_at untouched.
func (r *verifications) ConsumeTx(ctx context.Context, tx bun.IDB, v *UserVerification) error {
	if v.Verified {
		return nil
	}

	now := time.Now()
	v.Verified = true
	v.VerifiedAt = &now
	v.UpdatedAt = &now

	_, err := tx.NewUpdate().
		Model(v).
		Column("verified", "verified_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}
