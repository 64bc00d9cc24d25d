package store

import (
	"context"

	"github.com/diewo77/invoice-dashboard/internal/models"
	"gorm.io/gorm"
)

type CustomerStore struct {
	db *gorm.DB
}

func NewCustomerStore(db *gorm.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

// All returns every customer ordered by name, for the invoice form select.
func (s *CustomerStore) All(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&customers).Error; err != nil {
		return nil, wrap("customers", err)
	}
	return customers, nil
}
