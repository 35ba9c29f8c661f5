package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries one registration attempt. Retrying the same
// email rotates the pending OTP instead of erroring or duplicating rows.
type RegisterUserMessage struct {
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Password        string    `json:"password"`
	ConfirmPassword string    `json:"confirm_password"`
	DateOfBirth     time.Time `json:"date_of_birth"`
	Country         int       `json:"country"`
	UseHashid       bool
	OnResponse      func(r *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserResponse reports the outcome of a registration attempt once
// the transaction has committed.
type RegisterUserResponse struct {
	Pending  bool           `json:"pending"`
	Rotated  bool           `json:"rotated"`
	Delivery DeliveryResult `json:"delivery"`
	UserID   uuid.UUID      `json:"user_id"`
}

type RegisterUserHandler struct {
	repo     RepositoryManager
	lists    ListProvisioner
	notifier Notifier
	otpTTL   time.Duration
	logger   Logger
}

func NewRegisterUserHandler(repo RepositoryManager, lists ListProvisioner, notifier Notifier, otpTTL time.Duration, logger Logger) *RegisterUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	return &RegisterUserHandler{
		repo:     repo,
		lists:    lists,
		notifier: notifier,
		otpTTL:   otpTTL,
		logger:   logger,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	// Confirmation mismatch rejects before any side effect, as a single
	// message rather than a field map.
	if event.Password != event.ConfirmPassword {
		return ErrPasswordsDontMatch
	}

	user := &User{
		FirstName:   event.FirstName,
		LastName:    event.LastName,
		Email:       event.Email,
		DateOfBirth: event.DateOfBirth,
		Country:     event.Country,
	}
	user.StripWhitespace()

	if err := user.Validate(); err != nil {
		return NewValidationError(err)
	}

	resp := &RegisterUserResponse{}
	var verification *UserVerification

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().FindByEmailTx(ctx, tx, event.Email)
		if err != nil && !IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		if existing != nil && err == nil {
			if existing.EmailVerified {
				return ErrEmailTaken
			}

			// Pending registration retried: rotate code and expiry in
			// place, never a second ledger row.
			verification, err = h.repo.Verifications().FindByUserTx(ctx, tx, existing.ID)
			if err != nil {
				if !IsRecordNotFound(err) {
					return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load verification")
				}
				verification, err = h.repo.Verifications().IssueTx(ctx, tx, existing.ID, h.otpTTL)
				if err != nil {
					return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification")
				}
			} else if err := h.repo.Verifications().RegenerateTx(ctx, tx, verification, h.otpTTL); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to regenerate verification")
			}

			resp.Pending = true
			resp.Rotated = true
			resp.UserID = existing.ID
			return nil
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.RegenerateJTI()
		user.ID = uuid.New()
		if event.UseHashid {
			if id, err := hashid.NewUUID(user.Email); err == nil {
				user.ID = id
			}
		}

		if _, err := h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			// A concurrent registration for the same email loses the race
			// on the unique index and lands here.
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		if err := h.lists.EnsureDefaultsTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to provision default lists")
		}

		verification, err = h.repo.Verifications().IssueTx(ctx, tx, user.ID, h.otpTTL)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue verification")
		}

		resp.Pending = true
		resp.UserID = user.ID
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	// The challenge is committed at this point; delivery failure must not
	// unwind it. The result travels in the response payload instead.
	resp.Delivery = h.notifier.SendVerification(ctx, user.Email, user.FirstName, verification.OTPCode)
	if !resp.Delivery.Success {
		h.logger.Error("verification email delivery failed", "email", user.Email, "reason", resp.Delivery.Message)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
