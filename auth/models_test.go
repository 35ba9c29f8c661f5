package auth

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() User {
	return User{
		FirstName:   "Grace",
		LastName:    "Hopper",
		Email:       "grace@example.com",
		DateOfBirth: time.Date(1984, 12, 9, 0, 0, 0, 0, time.UTC),
		Country:     1,
	}
}

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*User)
		field   string
		message string
	}{
		{
			name:   "valid user passes",
			mutate: func(u *User) {},
		},
		{
			name:   "first name required",
			mutate: func(u *User) { u.FirstName = "" },
			field:  "first_name",
		},
		{
			name:    "first name rejects digits",
			mutate:  func(u *User) { u.FirstName = "Grace2" },
			field:   "first_name",
			message: "must contain only alphabets",
		},
		{
			name:    "last name rejects spaces",
			mutate:  func(u *User) { u.LastName = "van Dam" },
			field:   "last_name",
			message: "must contain only alphabets",
		},
		{
			name:   "email must be well formed",
			mutate: func(u *User) { u.Email = "not-an-email" },
			field:  "email",
		},
		{
			name:   "country required",
			mutate: func(u *User) { u.Country = 0 },
			field:  "country",
		},
		{
			name:    "date of birth can not be in the future",
			mutate:  func(u *User) { u.DateOfBirth = time.Now().AddDate(0, 0, 2) },
			field:   "date_of_birth",
			message: "can not be today or a future date",
		},
		{
			name:    "date of birth bounded at 120 years",
			mutate:  func(u *User) { u.DateOfBirth = time.Now().AddDate(-130, 0, 0) },
			field:   "date_of_birth",
			message: "must be within the last 120 years",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := validUser()
			tt.mutate(&user)

			err := user.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			fields, ok := err.(validation.Errors)
			require.True(t, ok)
			require.Contains(t, fields, tt.field)
			if tt.message != "" {
				assert.Equal(t, tt.message, fields[tt.field].Error())
			}
		})
	}
}

func TestUserValidateCollectsEveryFailure(t *testing.T) {
	user := User{}
	err := user.Validate()
	require.Error(t, err)

	fields, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, fields, "first_name")
	assert.Contains(t, fields, "last_name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "country")
	assert.Contains(t, fields, "date_of_birth")
}

func TestUserStripWhitespace(t *testing.T) {
	user := User{FirstName: "  Grace ", LastName: "\tHopper\n", Email: " grace@example.com "}
	user.StripWhitespace()
	assert.Equal(t, "Grace", user.FirstName)
	assert.Equal(t, "Hopper", user.LastName)
	assert.Equal(t, "grace@example.com", user.Email)
}

func TestUserAge(t *testing.T) {
	user := User{DateOfBirth: time.Now().AddDate(-30, 0, -1)}
	assert.Equal(t, 30, user.Age())
	assert.True(t, user.Adult())

	minor := User{DateOfBirth: time.Now().AddDate(-12, 0, -1)}
	assert.False(t, minor.Adult())

	unset := User{}
	assert.Equal(t, -1, unset.Age())
}

func TestUserFullName(t *testing.T) {
	user := validUser()
	assert.Equal(t, "Grace Hopper", user.FullName())
}

func TestRegenerateJTIChangesEpoch(t *testing.T) {
	user := validUser()
	user.RegenerateJTI()
	first := user.JTI
	require.NotEmpty(t, first)

	user.RegenerateJTI()
	assert.NotEqual(t, first, user.JTI)
}

func TestVerificationExpired(t *testing.T) {
	live := UserVerification{OTPExpiresAt: time.Now().Add(time.Minute)}
	assert.False(t, live.Expired())

	stale := UserVerification{OTPExpiresAt: time.Now().Add(-time.Second)}
	assert.True(t, stale.Expired())
}

func TestVerificationMatch(t *testing.T) {
	v := UserVerification{OTPCode: "654321"}
	assert.True(t, v.Match("654321"))
	assert.False(t, v.Match("123456"))
}
