package database

import (
	"gorm.io/gorm"
)

// UnitOfWorkInterface abstracts transaction handling from the repositories
// that need several writes to land together.
type UnitOfWorkInterface interface {
	Do(fn func(tx *gorm.DB) error) error
}

type unitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWorkInterface {
	return &unitOfWork{db: db}
}

// Do runs fn inside a transaction, rolling back when fn fails or panics.
func (uow *unitOfWork) Do(fn func(tx *gorm.DB) error) error {
	return uow.db.Transaction(fn)
}
