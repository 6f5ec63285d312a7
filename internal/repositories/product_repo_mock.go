package repositories

import (
	"sync"

	"shop/internal/models"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
// It mirrors the durable store's behavior, including the unique constraint
// on codes and store-assigned IDs.
type MockProductRepository struct {
	products map[uint]models.Product
	codes    map[string]uint
	nextID   uint
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[uint]models.Product),
		codes:    make(map[string]uint),
		nextID:   1,
	}
}

// GetAll returns all products.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// ExistsByID reports whether a product with the given ID exists.
func (r *MockProductRepository) ExistsByID(id uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id]
	return ok, nil
}

// ExistsByCode reports whether a product with the given code exists.
func (r *MockProductRepository) ExistsByCode(code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.codes[code]
	return ok, nil
}

// Create adds a new product, assigning the next free ID.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[product.Code]; ok {
		return ErrDuplicateCode
	}
	product.ID = r.nextID
	r.nextID++
	r.products[product.ID] = *product
	r.codes[product.Code] = product.ID
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}
	if holder, taken := r.codes[product.Code]; taken && holder != product.ID {
		return ErrDuplicateCode
	}
	delete(r.codes, existing.Code)
	r.products[product.ID] = *product
	r.codes[product.Code] = product.ID
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	delete(r.codes, product.Code)
	return nil
}
