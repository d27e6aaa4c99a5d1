// Package repo holds the user Resource Store and its implementations.
package repo

import (
	"context"

	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
)

// Mutation computes the next value of a record from its current value. It
// must not keep references to its argument. A returned error aborts the
// mutation and leaves the record untouched.
type Mutation func(current domain.User) (domain.User, error)

// Store is the persistence boundary of the user resource. Lookups of ids
// absent from the store fail with *domain.NotFoundError; rejected input
// fails with *domain.ValidationError.
//
// Every mutation is atomic per record: concurrent readers observe either
// the previous or the fully applied value. Mutations of distinct ids do
// not wait on each other.
type Store interface {
	Insert(ctx context.Context, fields domain.UserFields) (*domain.User, error)
	// List returns the selected page and the size of the whole collection.
	List(ctx context.Context, page common.Page) ([]domain.User, int64, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Replace(ctx context.Context, id string, fields domain.UserFields) (*domain.User, error)
	Patch(ctx context.Context, id string, mutate Mutation) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

func replaceFields(fields domain.UserFields) Mutation {
	return func(current domain.User) (domain.User, error) {
		return current.WithFields(fields), nil
	}
}

// applyMutation runs mutate on a copy of current and pins the identity of
// the result to the identity of current.
func applyMutation(ctx context.Context, current domain.User, mutate Mutation) (domain.User, error) {
	next, err := mutate(current)
	if err != nil {
		return current, err
	}
	next.Base = current.Base
	err = next.Validate(ctx)
	if err != nil {
		return current, err
	}
	return next, nil
}

func newUser(ctx context.Context, fields domain.UserFields) (domain.User, error) {
	user := domain.NewUser(fields)
	err := user.Prepare(ctx)
	if err != nil {
		return user, err
	}
	err = user.Validate(ctx)
	if err != nil {
		return user, err
	}
	return user, nil
}
