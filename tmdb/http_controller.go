package tmdb

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/thecinephile/api/auth"
)

// SearchController proxies TMDB searches for signed in users.
type SearchController struct {
	Logger auth.Logger
	Client *Client
}

func NewSearchController(client *Client, logger auth.Logger) *SearchController {
	return &SearchController{Logger: logger, Client: client}
}

func RegisterSearchRoutes(app fiber.Router, controller *SearchController, guard fiber.Handler) {
	grp := app.Group("/search", guard)
	grp.Get("/name", controller.SearchByName)
	grp.Get("/id", controller.SearchByID)

	// Discovery feeds are not wired to TMDB yet, they answer with a
	// placeholder so clients can code against the routes.
	for _, feed := range []string{"trending", "popular", "top_rated", "upcoming", "now_playing"} {
		grp.Get("/"+feed, controller.ComingSoon)
	}
}

func validMediaType(mediaType string) bool {
	return mediaType == "movie" || mediaType == "tv"
}

func (s *SearchController) SearchByName(c *fiber.Ctx) error {
	mediaType := c.Query("type")
	query := c.Query("query")
	if !validMediaType(mediaType) || query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Parameters are missing"})
	}

	result, err := s.Client.SearchByName(c.UserContext(), mediaType, query)
	if err != nil {
		return s.renderError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(result)
}

func (s *SearchController) SearchByID(c *fiber.Ctx) error {
	mediaType := c.Query("type")
	id := c.Query("tmdb_id")
	if !validMediaType(mediaType) || id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Parameters are missing"})
	}

	result, err := s.Client.SearchByID(c.UserContext(), mediaType, id)
	if err != nil {
		return s.renderError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(result)
}

func (s *SearchController) ComingSoon(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "This feed is not available yet",
	})
}

func (s *SearchController) renderError(c *fiber.Ctx, err error) error {
	if s.Logger != nil {
		s.Logger.Error("tmdb request failed", "error", err)
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Category == goerrors.CategoryOperation {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream search is unavailable"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
