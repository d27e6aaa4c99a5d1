package repo

import (
	"github.com/dzahariev/respite-users/common"
	"gorm.io/gorm"
)

// Paginate limits a query to the selected page; the whole-collection page leaves it untouched.
func Paginate(page common.Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page.All() {
			return db
		}
		return db.Offset(page.Offset).Limit(page.Size)
	}
}
