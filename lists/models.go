package lists

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// List types. Default lists are provisioned with every account and can
// only be read; custom lists belong fully to their owner.
const (
	TypeDefault = "DefaultList"
	TypeCustom  = "CustomList"
)

// DefaultNames are created for every account, in this order.
var DefaultNames = []string{
	"watchlist",
	"watched",
	"favourite_movies",
	"favourite_tv_shows",
}

type List struct {
	bun.BaseModel `bun:"table:lists,alias:lst"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID      uuid.UUID `bun:"user_id,notnull,type:uuid" json:"user_id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	Type        string    `bun:"type,notnull" json:"type"`
	Private     bool      `bun:"private,notnull,default:true" json:"private"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

func (l *List) StripWhitespace() {
	l.Name = strings.TrimSpace(l.Name)
	l.Description = strings.TrimSpace(l.Description)
}

func (l *List) Validate() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.Name,
			validation.Required,
			validation.Length(1, 100),
		),
		validation.Field(&l.Description,
			validation.Length(0, 500),
		),
	)
}

// Editable reports whether index/show is the whole permitted surface
// or the owner may also create, update, and delete.
func (l *List) Editable() bool {
	return l.Type == TypeCustom
}
