package auth

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMissing    = "TOKEN_MISSING"
	TextCodeTokenInvalid    = "TOKEN_INVALID"
	TextCodeInvalidCreds    = "INVALID_CREDENTIALS"
	TextCodeEmptyPassword   = "EMPTY_PASSWORD"
	TextCodePasswordsDiffer = "PASSWORDS_DONT_MATCH"
	TextCodeEmailTaken      = "EMAIL_TAKEN"
	TextCodeAccountNotFound = "ACCOUNT_NOT_FOUND"
	TextCodeOTPInvalid      = "OTP_INVALID"
	TextCodeAlreadyVerified = "ALREADY_VERIFIED"
)

// ErrTokenMissing is returned when a protected route receives no bearer token.
var ErrTokenMissing = errors.New("Authorization token is missing", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenInvalid covers every bearer failure past extraction: bad signature,
// expired token, unknown subject, or a stale session epoch. They collapse into
// one message so the response does not leak which check failed.
var ErrTokenInvalid = errors.New("Invalid or expired token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is the single login failure message for both unknown
// email and wrong password.
var ErrInvalidCredentials = errors.New("email or password is incorrect", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch error; callers
// translate it into ErrInvalidCredentials before it reaches the transport.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrPasswordsDontMatch rejects a registration whose confirmation differs.
var ErrPasswordsDontMatch = errors.New("passwords don't match", errors.CategoryValidation).
	WithTextCode(TextCodePasswordsDiffer).
	WithCode(errors.CodeBadRequest)

// ErrEmailTaken is returned when a verified account already owns the email.
var ErrEmailTaken = errors.New("account already exists and is verified", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrAccountNotFound is returned by verification when no account matches.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrOTPInvalid covers both an expired challenge and a code mismatch; one
// message for both so the response does not reveal which check failed.
var ErrOTPInvalid = errors.New("Invalid or expired OTP", errors.CategoryValidation).
	WithTextCode(TextCodeOTPInvalid).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyVerified is returned when the challenge was already consumed.
var ErrAlreadyVerified = errors.New("account already verified", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeConflict)

// NewValidationError wraps an ozzo validation result so the field→message map
// travels with the error and can be rendered by the transport layer.
func NewValidationError(verr error) *errors.Error {
	meta := map[string]any{}
	if fields, ok := verr.(validation.Errors); ok {
		for name, ferr := range fields {
			meta[name] = ferr.Error()
		}
	}
	return errors.Wrap(verr, errors.CategoryValidation, "validation failed").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": meta})
}

// ValidationFields extracts the field→message map attached by
// NewValidationError, or nil if the error carries none.
func ValidationFields(err error) map[string]any {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return nil
	}
	if rich.Metadata == nil {
		return nil
	}
	fields, ok := rich.Metadata["fields"].(map[string]any)
	if !ok {
		return nil
	}
	return fields
}

// HTTPStatus maps an error to the response status the API uses for its
// category. Unknown errors are treated as internal.
func HTTPStatus(err error) int {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return 500
	}
	switch rich.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return 401
	case errors.CategoryNotFound:
		return 404
	case errors.CategoryValidation, errors.CategoryConflict, errors.CategoryBadInput:
		return 422
	default:
		return 500
	}
}
