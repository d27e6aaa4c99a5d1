package repo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("insert assigns id", func(t *testing.T) {
		store := newStore(t)
		user, err := store.Insert(ctx, domain.UserFields{Name: "New user", Info: "This is the brand new user!!!"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "New user", user.Name)
		assert.Equal(t, "This is the brand new user!!!", user.Info)

		loaded, err := store.Get(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, user.ID, loaded.ID)
		assert.Equal(t, user.Name, loaded.Name)
		assert.Equal(t, user.Info, loaded.Info)
	})

	t.Run("insert rejects missing name", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, domain.UserFields{Info: "nameless"})
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("ids are unique", func(t *testing.T) {
		store := newStore(t)
		seen := map[uuid.UUID]bool{}
		for i := 0; i < 20; i++ {
			user, err := store.Insert(ctx, domain.UserFields{Name: fmt.Sprintf("user %d", i)})
			require.NoError(t, err)
			assert.False(t, seen[user.ID])
			seen[user.ID] = true
		}
	})

	t.Run("list keeps insertion order and pages", func(t *testing.T) {
		store := newStore(t)
		users, total, err := store.List(ctx, common.Page{})
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
		assert.Zero(t, total)

		for i := 0; i < 5; i++ {
			_, err := store.Insert(ctx, domain.UserFields{Name: fmt.Sprintf("user %d", i)})
			require.NoError(t, err)
		}

		users, total, err = store.List(ctx, common.Page{})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, users, 5)
		assert.Equal(t, "user 0", users[0].Name)
		assert.Equal(t, "user 4", users[4].Name)

		users, total, err = store.List(ctx, common.Page{Size: 2, Number: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, users, 2)
		assert.Equal(t, "user 2", users[0].Name)

		users, _, err = store.List(ctx, common.Page{Size: 2, Number: 4, Offset: 6})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("list order survives equal timestamps and updates", func(t *testing.T) {
		store := newStore(t)
		const count = 20
		for i := 0; i < count; i++ {
			_, err := store.Insert(ctx, domain.UserFields{Name: fmt.Sprintf("user %02d", i)})
			require.NoError(t, err)
		}
		users, _, err := store.List(ctx, common.Page{})
		require.NoError(t, err)
		require.Len(t, users, count)

		_, err = store.Replace(ctx, users[0].ID.String(), domain.UserFields{Name: "user 00", Info: "updated"})
		require.NoError(t, err)
		_, err = store.Patch(ctx, users[1].ID.String(), func(current domain.User) (domain.User, error) {
			current.Seq = 0
			current.Info = "patched"
			return current, nil
		})
		require.NoError(t, err)

		users, _, err = store.List(ctx, common.Page{})
		require.NoError(t, err)
		require.Len(t, users, count)
		for i, user := range users {
			assert.Equal(t, fmt.Sprintf("user %02d", i), user.Name)
			if i > 0 {
				assert.Greater(t, user.Seq, users[i-1].Seq)
			}
		}
	})

	t.Run("list pages far past the end are empty", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Insert(ctx, domain.UserFields{Name: "only user"})
		require.NoError(t, err)

		tests := []struct {
			name string
			page common.Page
		}{
			{name: "saturated offset", page: common.Page{Size: 10, Number: math.MaxInt, Offset: math.MaxInt}},
			{name: "offset just past the end", page: common.Page{Size: 10, Number: 2, Offset: 10}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, total, err := store.List(ctx, tt.page)
				require.NoError(t, err)
				assert.NotNil(t, users)
				assert.Empty(t, users)
				assert.Equal(t, int64(1), total)
			})
		}
	})

	t.Run("replace keeps id and is durable", func(t *testing.T) {
		store := newStore(t)
		user, err := store.Insert(ctx, domain.UserFields{Name: "New user", Info: "info"})
		require.NoError(t, err)

		updated, err := store.Replace(ctx, user.ID.String(), domain.UserFields{Name: "Updated user", Info: "This is the updated user!!!"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, updated.ID)
		assert.Equal(t, "Updated user", updated.Name)

		loaded, err := store.Get(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "Updated user", loaded.Name)
		assert.Equal(t, "This is the updated user!!!", loaded.Info)
	})

	t.Run("patch cannot change id", func(t *testing.T) {
		store := newStore(t)
		user, err := store.Insert(ctx, domain.UserFields{Name: "New user"})
		require.NoError(t, err)

		patched, err := store.Patch(ctx, user.ID.String(), func(current domain.User) (domain.User, error) {
			current.ID = uuid.Must(uuid.NewV4())
			current.Name = "Patched user"
			return current, nil
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID, patched.ID)
		assert.Equal(t, "Patched user", patched.Name)
	})

	t.Run("failed patch leaves record untouched", func(t *testing.T) {
		store := newStore(t)
		user, err := store.Insert(ctx, domain.UserFields{Name: "New user", Info: "info"})
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = store.Patch(ctx, user.ID.String(), func(current domain.User) (domain.User, error) {
			current.Name = "half"
			return current, boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.Patch(ctx, user.ID.String(), func(current domain.User) (domain.User, error) {
			current.Name = ""
			return current, nil
		})
		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)

		loaded, err := store.Get(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "New user", loaded.Name)
		assert.Equal(t, "info", loaded.Info)
	})

	t.Run("delete then not found", func(t *testing.T) {
		store := newStore(t)
		user, err := store.Insert(ctx, domain.UserFields{Name: "New user"})
		require.NoError(t, err)
		id := user.ID.String()

		require.NoError(t, store.Delete(ctx, id))

		var notFound *domain.NotFoundError
		assert.ErrorAs(t, store.Delete(ctx, id), &notFound)
		_, err = store.Get(ctx, id)
		assert.ErrorAs(t, err, &notFound)
		_, err = store.Replace(ctx, id, domain.UserFields{Name: "ghost"})
		assert.ErrorAs(t, err, &notFound)
		_, err = store.Patch(ctx, id, replaceFields(domain.UserFields{Name: "ghost"}))
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("unknown and malformed ids are not found", func(t *testing.T) {
		store := newStore(t)
		for _, id := range []string{uuid.Must(uuid.NewV4()).String(), "not-a-uuid", ""} {
			var notFound *domain.NotFoundError
			_, err := store.Get(ctx, id)
			assert.ErrorAs(t, err, &notFound, id)
			_, err = store.Replace(ctx, id, domain.UserFields{Name: "x"})
			assert.ErrorAs(t, err, &notFound, id)
			assert.ErrorAs(t, store.Delete(ctx, id), &notFound, id)
		}
	})

	t.Run("concurrent patches of one record are serialized", func(t *testing.T) {
		store := newStore(t)
		user, err := store.Insert(ctx, domain.UserFields{Name: "0", Info: "0"})
		require.NoError(t, err)
		id := user.ID.String()

		const writers = 10
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Patch(ctx, id, func(current domain.User) (domain.User, error) {
					var n int
					_, err := fmt.Sscanf(current.Name, "%d", &n)
					if err != nil {
						return current, err
					}
					value := fmt.Sprintf("%d", n+1)
					current.Name = value
					current.Info = value
					return current, nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		loaded, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d", writers), loaded.Name)
		assert.Equal(t, loaded.Name, loaded.Info)
	})

	t.Run("ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(ctx))
	})
}
