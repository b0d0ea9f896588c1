package commands

import "gorm.io/gorm"

// TxRunner runs a unit of work inside one database transaction: commit on
// nil error, rollback on error or panic.
type TxRunner interface {
	RunInTransaction(fn func(tx *gorm.DB) error) error
}

// GormRunner is the production TxRunner on a gorm handle.
type GormRunner struct {
	DB *gorm.DB
}

// NewRunner constructor
func NewRunner(db *gorm.DB) *GormRunner {
	return &GormRunner{DB: db}
}

// RunInTransaction opens a transaction, invokes fn with the transactional
// handle and commits on success. A panic rolls back and re-panics.
func (r *GormRunner) RunInTransaction(fn func(tx *gorm.DB) error) error {
	tx := r.DB.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
