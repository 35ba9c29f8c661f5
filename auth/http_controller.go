package auth

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AuthController exposes the login / register / verify / logout use cases
// over JSON.
type AuthController struct {
	Logger   Logger
	Auther   *Auther
	Register *RegisterUserHandler
	Verify   *VerifyEmailHandler
	Config   Config
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	if c.Register == nil || c.Verify == nil {
		panic("Missing command handlers in auth controller...")
	}

	return c
}

func WithAuther(a *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = a
		return c
	}
}

func WithCommands(register *RegisterUserHandler, verify *VerifyEmailHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = register
		c.Verify = verify
		return c
	}
}

func WithConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// RegisterAuthRoutes mounts the auth surface. Login, register, and verify
// bypass the guard; logout requires it.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController, guard fiber.Handler) {
	grp := app.Group("/auth")
	grp.Post("/login", controller.LoginPost)
	grp.Post("/register", controller.RegistrationCreate)
	grp.Post("/verify_email", controller.VerifyEmailPost)
	grp.Delete("/logout", guard, controller.LogoutDelete)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body"))
	}

	if err := payload.Validate(); err != nil {
		return renderError(c, NewValidationError(err))
	}

	token, user, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Info("login rejected", "email", payload.Email)
		return renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// RegistrationCreatePayload is the registration body.
type RegistrationCreatePayload struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Country         int    `json:"country"`
	DateOfBirth     string `json:"date_of_birth"`
}

// Validate checks shape only; the Credential Store owns the field rules.
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.ConfirmPassword, validation.Required),
		validation.Field(&r.DateOfBirth, validation.Required, validation.Date("2006-01-02")),
	)
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return renderError(c, NewValidationError(err))
	}

	dob, _ := time.Parse("2006-01-02", payload.DateOfBirth)

	var resp *RegisterUserResponse
	req := RegisterUserMessage{
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		Country:         payload.Country,
		DateOfBirth:     dob,
		OnResponse:      func(r *RegisterUserResponse) { resp = r },
	}

	if err := a.Register.Execute(c.UserContext(), req); err != nil {
		a.Logger.Error("register user error", "error", err)
		return renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":  "verification pending",
		"delivery": resp.Delivery,
	})
}

// VerifyEmailPayload is the OTP submission body.
type VerifyEmailPayload struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r VerifyEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.OTP, validation.Required, validation.Length(OTPLength, OTPLength)),
	)
}

func (a *AuthController) VerifyEmailPost(c *fiber.Ctx) error {
	payload := new(VerifyEmailPayload)

	if err := c.BodyParser(payload); err != nil {
		return renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body"))
	}

	if err := payload.Validate(); err != nil {
		return renderError(c, NewValidationError(err))
	}

	var resp *VerifyEmailResponse
	req := VerifyEmailMessage{
		Email:      payload.Email,
		OTP:        payload.OTP,
		OnResponse: func(r *VerifyEmailResponse) { resp = r },
	}

	if err := a.Verify.Execute(c.UserContext(), req); err != nil {
		a.Logger.Info("email verification rejected", "email", payload.Email, "error", err)
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": resp.Token,
		"user":  resp.User,
	})
}

func (a *AuthController) LogoutDelete(c *fiber.Ctx) error {
	contextKey := DefaultContextKey
	if a.Config != nil {
		contextKey = a.Config.GetContextKey()
	}

	user, err := CurrentUser(c, contextKey)
	if err != nil {
		return renderError(c, err)
	}

	if err := a.Auther.Logout(c.UserContext(), user); err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "logged out successfully",
	})
}

// renderError translates the error taxonomy into the JSON error surface:
// validation failures carry a field→message map under "errors", everything
// else a single string under "error". Internal details never leak.
func renderError(c *fiber.Ctx, err error) error {
	status := HTTPStatus(err)

	if fields := ValidationFields(err); fields != nil {
		return c.Status(status).JSON(fiber.Map{"errors": fields})
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	if status == fiber.StatusInternalServerError {
		// Log the wrapped cause, respond with the generic message only.
		defLogger{}.Error("internal error", "detail", print.MaybePrettyJSON(rich.Metadata))
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(status).JSON(fiber.Map{"error": rich.Message})
}
