package repository

import (
	"strings"

	"github.com/deppfellow/crud-demo/internal/validation"
	"gorm.io/gorm"
)

// CreateUserParams holds the fields required to create a user.
type CreateUserParams struct {
	Name  string `validate:"max=100"`
	Email string `validate:"required,email,max=254"`
}

func (p CreateUserParams) Validate() error {
	return validation.Struct(p)
}

// createManyParams exists so a batch validates as one payload and field
// errors read "users[1].email".
type createManyParams struct {
	Users []CreateUserParams `validate:"required,min=1,dive"`
}

func (p createManyParams) Validate() error {
	return validation.Struct(p)
}

// CreatePostParams describes a post created together with its author.
type CreatePostParams struct {
	Title     string  `validate:"required,max=200"`
	Content   *string `validate:"omitempty,max=10000"`
	Published bool
}

// CreateProfileParams describes a profile created together with its user.
type CreateProfileParams struct {
	Bio *string `validate:"omitempty,max=1000"`
}

// CreateUserWithRelationsParams is a user plus nested records.
type CreateUserWithRelationsParams struct {
	Name    string               `validate:"max=100"`
	Email   string               `validate:"required,email,max=254"`
	Posts   []CreatePostParams   `validate:"dive"`
	Profile *CreateProfileParams `validate:"omitempty"`
}

func (p CreateUserWithRelationsParams) Validate() error {
	return validation.Struct(p)
}

// UserWhereUnique selects one user by a unique field. Exactly one of ID
// and Email must be set.
type UserWhereUnique struct {
	ID    int64  `validate:"min=0"`
	Email string `validate:"omitempty,email"`
}

func (w UserWhereUnique) Validate() error {
	if (w.ID == 0) == (w.Email == "") {
		return validation.CustomValidationErrors{{
			Field:   "where",
			Message: "exactly one of id or email must be set",
		}}
	}
	return validation.Struct(w)
}

func (w UserWhereUnique) apply(db *gorm.DB) *gorm.DB {
	if w.ID != 0 {
		return db.Where("id = ?", w.ID)
	}
	return db.Where("email = ?", w.Email)
}

// UserInclude names the relations to load alongside users.
type UserInclude struct {
	Posts   bool
	Profile bool
}

func (i UserInclude) apply(db *gorm.DB) *gorm.DB {
	if i.Posts {
		db = db.Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("id")
		})
	}
	if i.Profile {
		db = db.Preload("Profile")
	}
	return db
}

// UserFilter narrows a set of users. The zero value matches every user.
type UserFilter struct {
	Name          string
	EmailEndsWith string
}

// IsEmpty reports whether the filter matches every user.
func (f UserFilter) IsEmpty() bool {
	return f.Name == "" && f.EmailEndsWith == ""
}

func (f UserFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Name != "" {
		db = db.Where("name = ?", f.Name)
	}
	if f.EmailEndsWith != "" {
		db = db.Where(`email LIKE ? ESCAPE '\'`, "%"+escapeLike(f.EmailEndsWith))
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// UpdateUserParams lists the fields to change; nil means "leave as is".
// At least one field must be set.
type UpdateUserParams struct {
	Name  *string `validate:"omitempty,max=100"`
	Email *string `validate:"omitempty,email,max=254"`
}

func (p UpdateUserParams) Validate() error {
	if p.Name == nil && p.Email == nil {
		return validation.CustomValidationErrors{{
			Field:   "data",
			Message: "at least one field must be updated",
		}}
	}
	return validation.Struct(p)
}

func (p UpdateUserParams) values() map[string]any {
	values := make(map[string]any, 2)
	if p.Name != nil {
		values["name"] = *p.Name
	}
	if p.Email != nil {
		values["email"] = *p.Email
	}
	return values
}
