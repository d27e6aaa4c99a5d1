package domain

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Base holds the identity and bookkeeping columns shared by persisted entities.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// Seq increases with every insert and orders listings.
	Seq       int64     `gorm:"autoIncrement;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BasePrepare assigns a new identifier when the entity does not have one yet.
func (b *Base) BasePrepare(ctx context.Context) error {
	if b.ID != uuid.Nil {
		return nil
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return err
	}
	b.ID = uid
	return nil
}
