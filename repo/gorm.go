package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps users in a relational database through gorm.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps an opened gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Migrate creates or updates the users table.
func (s *GormStore) Migrate(ctx context.Context) error {
	err := s.DB.WithContext(ctx).AutoMigrate(&domain.User{})
	if err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

func (s *GormStore) Insert(ctx context.Context, fields domain.UserFields) (*domain.User, error) {
	user, err := newUser(ctx, fields)
	if err != nil {
		return nil, err
	}
	err = s.DB.WithContext(ctx).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) List(ctx context.Context, page common.Page) ([]domain.User, int64, error) {
	db := s.DB.WithContext(ctx)
	var total int64
	err := db.Model(&domain.User{}).Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	users := []domain.User{}
	err = db.Scopes(Paginate(page)).Order("seq").Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*domain.User, error) {
	uid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	user := &domain.User{}
	err = s.DB.WithContext(ctx).First(user, "id = ?", uid).Error
	if err != nil {
		return nil, notFoundOr(err, id, "get user")
	}
	return user, nil
}

func (s *GormStore) Replace(ctx context.Context, id string, fields domain.UserFields) (*domain.User, error) {
	return s.Patch(ctx, id, replaceFields(fields))
}

// Patch locks the row for the duration of the transaction so concurrent
// mutations of one user are applied one after the other.
func (s *GormStore) Patch(ctx context.Context, id string, mutate Mutation) (*domain.User, error) {
	uid, err := domain.ParseID(id)
	if err != nil {
		return nil, err
	}
	var result domain.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current := domain.User{}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", uid).Error
		if err != nil {
			return notFoundOr(err, id, "lock user")
		}
		next, err := applyMutation(ctx, current, mutate)
		if err != nil {
			return err
		}
		err = tx.Save(&next).Error
		if err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	uid, err := domain.ParseID(id)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Where("id = ?", uid).Delete(&domain.User{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Resource: domain.UsersResource, ID: id}
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFoundOr(err error, id, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.NotFoundError{Resource: domain.UsersResource, ID: id}
	}
	return fmt.Errorf("%s: %w", action, err)
}
