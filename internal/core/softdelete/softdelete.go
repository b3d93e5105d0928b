// Package softdelete owns the visibility rules for entities that carry a
// nullable deletion timestamp instead of being physically removed. No other
// package constructs its own deleted_at predicate.
package softdelete

import (
	"time"

	"gorm.io/gorm"
)

type Mode int

const (
	// ActiveOnly is the default everywhere, including every dependency
	// count that feeds a deletion-eligibility check. Using raw existence
	// there would let soft-deleted children block parent deletion forever.
	ActiveOnly Mode = iota
	DeletedOnly
	All
)

// Visible returns a GORM scope applying the visibility predicate for mode.
func Visible(mode Mode) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch mode {
		case DeletedOnly:
			return db.Where("deleted_at IS NOT NULL")
		case All:
			return db
		default:
			return db.Where("deleted_at IS NULL")
		}
	}
}

// MarkDeleted stamps the row's deletion timestamp.
func MarkDeleted(db *gorm.DB, model interface{}, id int64) error {
	now := time.Now()
	return db.Model(model).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"updated_at": now,
		}).Error
}

// MarkRestored clears the deletion timestamp.
func MarkRestored(db *gorm.DB, model interface{}, id int64) error {
	return db.Model(model).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": nil,
			"updated_at": time.Now(),
		}).Error
}

// RepairTables lists every table that historically could be "deleted" by
// flipping the legacy active flag without stamping deleted_at.
var RepairTables = []string{"users", "clients", "contacts", "projects"}

// Repair backfills deleted_at for rows left inconsistent by legacy
// active-flag deletes, using the row's last-modified time as the best-effort
// deletion time. Running it twice produces no further changes.
func Repair(db *gorm.DB, table string) (int64, error) {
	res := db.Table(table).
		Where("active = ? AND deleted_at IS NULL", false).
		Update("deleted_at", gorm.Expr("updated_at"))
	return res.RowsAffected, res.Error
}

// RepairAll runs Repair over every known table and returns the total number
// of rows fixed.
func RepairAll(db *gorm.DB) (int64, error) {
	var total int64
	for _, table := range RepairTables {
		n, err := Repair(db, table)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
