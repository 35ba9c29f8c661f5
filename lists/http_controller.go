package lists

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/thecinephile/api/auth"
)

var errListNotFound = goerrors.New("list not found", goerrors.CategoryNotFound).
	WithTextCode("LIST_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ListsController serves the owner scoped list endpoints. Default lists
// expose index and show only; custom lists get the full set.
type ListsController struct {
	Logger     auth.Logger
	Repo       Lists
	ContextKey string
}

func NewListsController(repo Lists, contextKey string, logger auth.Logger) *ListsController {
	if contextKey == "" {
		contextKey = auth.DefaultContextKey
	}
	return &ListsController{Logger: logger, Repo: repo, ContextKey: contextKey}
}

func RegisterListRoutes(app fiber.Router, controller *ListsController, guard fiber.Handler) {
	def := app.Group("/default_list", guard)
	def.Get("/", controller.indexFor(TypeDefault))
	def.Get("/:id", controller.showFor(TypeDefault))

	cus := app.Group("/custom_list", guard)
	cus.Get("/", controller.indexFor(TypeCustom))
	cus.Get("/:id", controller.showFor(TypeCustom))
	cus.Post("/", controller.Create)
	cus.Patch("/:id", controller.Update)
	cus.Delete("/:id", controller.Destroy)
}

func (l *ListsController) owner(c *fiber.Ctx) (*auth.User, error) {
	user, err := auth.CurrentUser(c, l.ContextKey)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (l *ListsController) indexFor(listType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := l.owner(c)
		if err != nil {
			return l.renderError(c, err)
		}

		records, err := l.Repo.FindOwned(c.UserContext(), user.ID, listType)
		if err != nil {
			return l.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load lists"))
		}

		return c.Status(fiber.StatusOK).JSON(records)
	}
}

func (l *ListsController) showFor(listType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := l.owner(c)
		if err != nil {
			return l.renderError(c, err)
		}

		record, err := l.lookup(c, user.ID, listType)
		if err != nil {
			return l.renderError(c, err)
		}

		return c.Status(fiber.StatusOK).JSON(record)
	}
}

type ListPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (l *ListsController) Create(c *fiber.Ctx) error {
	user, err := l.owner(c)
	if err != nil {
		return l.renderError(c, err)
	}

	payload := ListPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return l.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	record := &List{
		ID:          uuid.New(),
		UserID:      user.ID,
		Name:        payload.Name,
		Description: payload.Description,
		Type:        TypeCustom,
		Private:     true,
	}
	record.StripWhitespace()
	if err := record.Validate(); err != nil {
		return l.renderError(c, auth.NewValidationError(err))
	}

	if _, err := l.Repo.Create(c.UserContext(), record); err != nil {
		return l.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create list"))
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (l *ListsController) Update(c *fiber.Ctx) error {
	user, err := l.owner(c)
	if err != nil {
		return l.renderError(c, err)
	}

	record, err := l.lookup(c, user.ID, TypeCustom)
	if err != nil {
		return l.renderError(c, err)
	}

	payload := ListPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return l.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse payload"))
	}

	if payload.Name != "" {
		record.Name = payload.Name
	}
	if payload.Description != "" {
		record.Description = payload.Description
	}
	record.StripWhitespace()
	if err := record.Validate(); err != nil {
		return l.renderError(c, auth.NewValidationError(err))
	}
	record.UpdatedAt = time.Now()

	if _, err := l.Repo.Update(c.UserContext(), record); err != nil {
		return l.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update list"))
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (l *ListsController) Destroy(c *fiber.Ctx) error {
	user, err := l.owner(c)
	if err != nil {
		return l.renderError(c, err)
	}

	record, err := l.lookup(c, user.ID, TypeCustom)
	if err != nil {
		return l.renderError(c, err)
	}

	if err := l.Repo.DeleteOwned(c.UserContext(), record); err != nil {
		return l.renderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete list"))
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (l *ListsController) lookup(c *fiber.Ctx, ownerID uuid.UUID, listType string) (*List, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, errListNotFound
	}

	record, err := l.Repo.FindOwnedByID(c.UserContext(), ownerID, id, listType)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, errListNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load list")
	}
	return record, nil
}

func (l *ListsController) renderError(c *fiber.Ctx, err error) error {
	status := auth.HTTPStatus(err)
	if fields := auth.ValidationFields(err); fields != nil {
		return c.Status(status).JSON(fiber.Map{"errors": fields})
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		if status >= fiber.StatusInternalServerError {
			if l.Logger != nil {
				l.Logger.Error("list request failed", "error", err)
			}
			return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
		}
		return c.Status(status).JSON(fiber.Map{"error": rich.Message})
	}

	if l.Logger != nil {
		l.Logger.Error("list request failed", "error", err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
