package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// VerifyEmailMessage carries one OTP submission for a pending registration.
type VerifyEmailMessage struct {
	Email      string `json:"email"`
	OTP        string `json:"otp"`
	OnResponse func(r *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

// VerifyEmailResponse carries the session assertion and the activated
// identity once verification commits.
type VerifyEmailResponse struct {
	Token    string         `json:"token"`
	User     *User          `json:"user"`
	Delivery DeliveryResult `json:"delivery"`
}

type VerifyEmailHandler struct {
	repo     RepositoryManager
	lists    ListProvisioner
	tokens   TokenService
	notifier Notifier
	logger   Logger
}

func NewVerifyEmailHandler(repo RepositoryManager, lists ListProvisioner, tokens TokenService, notifier Notifier, logger Logger) *VerifyEmailHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &VerifyEmailHandler{
		repo:     repo,
		lists:    lists,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	var user *User

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().FindByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account")
		}

		verification, err := h.repo.Verifications().FindByUserTx(ctx, tx, user.ID)
		if err != nil {
			if IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load verification")
		}

		// Expiry and mismatch intentionally share a message; the caller
		// cannot tell which check failed.
		if verification.Expired() || !verification.Match(event.OTP) {
			return ErrOTPInvalid
		}

		if verification.Verified {
			return ErrAlreadyVerified
		}

		if err := h.repo.Verifications().ConsumeTx(ctx, tx, verification); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification")
		}

		if err := h.repo.Users().MarkVerifiedTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark account verified")
		}

		// Default collections normally exist from registration; this keeps
		// finalization whole for identities migrated without them.
		if err := h.lists.EnsureDefaultsTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to provision default lists")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "email verification transaction failed")
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		return err
	}

	resp := &VerifyEmailResponse{Token: token, User: user}

	resp.Delivery = h.notifier.SendWelcome(ctx, user)
	if !resp.Delivery.Success {
		h.logger.Error("welcome email delivery failed", "email", user.Email, "reason", resp.Delivery.Message)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
