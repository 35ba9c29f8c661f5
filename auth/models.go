package auth

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted identity record. The password hash and the session
// epoch never appear in any serialized representation.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	JTI           string     `bun:"jti,notnull" json:"-"`
	DateOfBirth   time.Time  `bun:"date_of_birth,notnull,type:date" json:"date_of_birth,omitempty"`
	Country       int        `bun:"country,notnull" json:"country,omitempty"`
	EmailVerified bool       `bun:"is_email_verified,notnull,default:false" json:"is_email_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

var alphabeticRe = regexp.MustCompile(`^[a-zA-Z]+$`)

// maxAccountAge bounds how far back a date of birth may lie.
const maxAccountAge = 120

// StripWhitespace trims names and email before validation, mirroring what
// clients tend to submit from mobile keyboards.
func (u *User) StripWhitespace() {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Email = strings.TrimSpace(u.Email)
}

// Validate runs every field rule. Each rule fails independently and the
// result is a field→message map (validation.Errors).
func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.FirstName,
			validation.Required,
			validation.Length(1, 50),
			validation.Match(alphabeticRe).Error("must contain only alphabets"),
		),
		validation.Field(&u.LastName,
			validation.Required,
			validation.Length(1, 50),
			validation.Match(alphabeticRe).Error("must contain only alphabets"),
		),
		validation.Field(&u.Email,
			validation.Required,
			validation.Length(0, 254),
			is.Email,
		),
		validation.Field(&u.Country,
			validation.Required,
			validation.Min(1),
		),
		validation.Field(&u.DateOfBirth,
			validation.Required,
			validation.By(checkDateOfBirth),
		),
	)
}

func checkDateOfBirth(value any) error {
	dob, ok := value.(time.Time)
	if !ok || dob.IsZero() {
		return nil // Required already covers the empty case
	}

	today := time.Now().Truncate(24 * time.Hour)
	if !dob.Before(today) {
		return validation.NewError("validation_dob_future", "can not be today or a future date")
	}

	if dob.Before(today.AddDate(-maxAccountAge, 0, 0)) {
		return validation.NewError("validation_dob_too_old", "must be within the last 120 years")
	}

	return nil
}

// Age in whole years, or -1 when the date of birth is unset.
func (u *User) Age() int {
	if u.DateOfBirth.IsZero() {
		return -1
	}
	return int(time.Since(u.DateOfBirth).Hours() / 24 / 365.25)
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Adult reports whether the user is at least 18.
func (u *User) Adult() bool {
	age := u.Age()
	return age >= 18
}

// RegenerateJTI rotates the session epoch, invalidating every assertion
// minted against the previous value.
func (u *User) RegenerateJTI() {
	u.JTI = uuid.NewString()
}

// UserVerification is one OTP challenge tied to an identity. At most one
// row exists per user; regeneration rewrites it in place.
type UserVerification struct {
	bun.BaseModel `bun:"table:user_verifications,alias:uvr"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	UserID       uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User         *User      `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	OTPCode      string     `bun:"otp_code,notnull" json:"-"`
	OTPExpiresAt time.Time  `bun:"otp_expires_at,notnull" json:"otp_expires_at,omitempty"`
	Verified     bool       `bun:"verified,notnull,default:false" json:"verified"`
	VerifiedAt   *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt    *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expired reports whether the challenge TTL has elapsed. The boundary
// instant counts as expired.
func (v *UserVerification) Expired() bool {
	return !time.Now().Before(v.OTPExpiresAt)
}

// Match compares the submitted code against the stored one in constant time.
func (v *UserVerification) Match(submitted string) bool {
	return MatchOTP(v.OTPCode, submitted)
}
