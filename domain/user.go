package domain

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// UsersResource is the collection name users are exposed under.
const UsersResource = "users"

// User is a person kept in the users resource.
type User struct {
	Base
	Name string `gorm:"size:255;not null" json:"name"`
	Info string `gorm:"type:text" json:"info"`
}

// Validate checks structure consistency
func (u *User) Validate(ctx context.Context) error {
	return validateStruct(UserFields{Name: u.Name, Info: u.Info})
}

func (u *User) Prepare(ctx context.Context) error {
	err := u.BasePrepare(ctx)
	if err != nil {
		return err
	}
	u.Name = strings.TrimSpace(u.Name)
	return nil
}

// Fields returns the mutable part of the user.
func (u User) Fields() UserFields {
	return UserFields{Name: u.Name, Info: u.Info}
}

// WithFields returns a copy of the user with the mutable part replaced.
// Identity and bookkeeping columns are carried over untouched.
func (u User) WithFields(fields UserFields) User {
	u.Name = fields.Name
	u.Info = fields.Info
	return u
}

// NewUser builds an unsaved user from validated fields.
func NewUser(fields UserFields) User {
	return User{Name: fields.Name, Info: fields.Info}
}

// ParseID converts a path identifier into a user id. Identifiers that are
// not UUIDs cannot name a stored user, so they are reported as not found.
func ParseID(id string) (uuid.UUID, error) {
	uid, err := uuid.FromString(id)
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, &NotFoundError{Resource: UsersResource, ID: id}
	}
	return uid, nil
}
