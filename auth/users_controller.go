package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UsersController exposes administrative record access for identities.
// Both routes sit behind the Session Guard.
type UsersController struct {
	Logger Logger
	Repo   RepositoryManager
}

func NewUsersController(repo RepositoryManager, logger Logger) *UsersController {
	if logger == nil {
		logger = defLogger{}
	}
	return &UsersController{Logger: logger, Repo: repo}
}

func RegisterUserRoutes(app fiber.Router, controller *UsersController, guard fiber.Handler) {
	grp := app.Group("/users", guard)
	grp.Get("/:id", controller.Show)
	grp.Delete("/:id", controller.Destroy)
}

func (u *UsersController) Show(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return renderError(c, ErrAccountNotFound)
	}

	user, err := u.Repo.Users().FindByID(c.UserContext(), id)
	if err != nil {
		if IsRecordNotFound(err) {
			return renderError(c, ErrAccountNotFound)
		}
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user"))
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// Destroy removes an identity together with its verification ledger entry
// and owned lists, in one transaction.
func (u *UsersController) Destroy(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return renderError(c, ErrAccountNotFound)
	}

	var user *User
	err = u.Repo.RunInTx(c.UserContext(), nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = u.Repo.Users().FindByIDTx(ctx, tx, id)
		if err != nil {
			if IsRecordNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
		}

		if _, err := tx.NewDelete().Model((*UserVerification)(nil)).Where("user_id = ?", id).Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete verifications")
		}

		if _, err := tx.NewDelete().Table("lists").Where("user_id = ?", id).Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete lists")
		}

		if _, err := tx.NewDelete().Model(user).WherePK().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
		}

		return nil
	})
	if err != nil {
		return renderError(c, err)
	}

	u.Logger.Info("user deleted", "user_id", id)
	return c.Status(fiber.StatusOK).JSON(user)
}
