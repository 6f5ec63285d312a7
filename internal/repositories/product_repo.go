package repositories

import (
	"shop/internal/models"
)

// ProductRepository defines the interface for product data access.
// Implementations must enforce the unique constraint on Code and report
// violations as ErrDuplicateCode.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	ExistsByID(id uint) (bool, error)
	ExistsByCode(code string) (bool, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
}
