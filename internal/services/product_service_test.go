package services_test

import (
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var codePattern = regexp.MustCompile(`^[a-z0-9]{9}$`)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id uint) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) ExistsByID(id uint) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) ExistsByCode(code string) (bool, error) {
	args := m.Called(code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

type publishedEvent struct {
	RoutingKey string
	Payload    map[string]interface{}
}

// capturingPublisher records product lifecycle events in memory.
type capturingPublisher struct {
	events []publishedEvent
}

func (p *capturingPublisher) Publish(routingKey string, body []byte) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Payload: payload})
	return nil
}

func TestProductService_ListProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	stored := []models.Product{
		{ID: 1, Code: "abc123def", Name: "Product A", Price: 10.0, InventoryStatus: models.InventoryInStock},
		{ID: 2, Code: "xyz789ghi", Name: "Product B", Price: 20.0, InventoryStatus: models.InventoryLowStock},
	}

	mockRepo.On("GetAll").Return(stored, nil).Once()

	products, err := service.ListProducts()

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, uint(1), products[0].ID)
	assert.Equal(t, "abc123def", products[0].Code)
	assert.Equal(t, "LOWSTOCK", products[1].InventoryStatus)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	stored := &models.Product{ID: 1, Code: "abc123def", Name: "Product A", Price: 10.0}

	// Test successful retrieval
	mockRepo.On("GetByID", uint(1)).Return(stored, nil).Once()
	product, err := service.GetProduct(1)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), product.ID)
	assert.Equal(t, 10.0, *product.Price)
	mockRepo.AssertExpectations(t)

	// Test product not found
	mockRepo.On("GetByID", uint(99)).Return(nil, repositories.ErrProductNotFound).Once()
	product, err = service.GetProduct(99)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_Defaults(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("ExistsByCode", mock.AnythingOfType("string")).Return(false, nil)
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = 7
	}).Return(nil).Once()

	created, err := service.CreateProduct(models.ProductView{Name: "Desk", Price: floatPtr(199.99)})

	assert.NoError(t, err)
	assert.Equal(t, uint(7), created.ID)
	assert.Regexp(t, codePattern, created.Code)
	assert.Equal(t, "INSTOCK", created.InventoryStatus)
	assert.Equal(t, 0, *created.Quantity)
	assert.Equal(t, 0, *created.Rating)
	assert.Equal(t, int64(0), *created.ShellID)
	assert.Equal(t, 199.99, *created.Price)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_ValidationErrors(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	// Both violations are reported at once, not just the first.
	created, err := service.CreateProduct(models.ProductView{Name: "", Price: floatPtr(-5)})
	assert.Nil(t, created)
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "price cannot be negative")
	assert.Len(t, validationErr.Violations, 2)

	// Whitespace-only name is blank; missing price is its own violation.
	_, err = service.CreateProduct(models.ProductView{Name: "   "})
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "price is required")

	// The repository is never touched on validation failure.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertNotCalled(t, "ExistsByCode", mock.Anything)
}

func TestProductService_CreateProduct_RejectsUnknownInventoryStatus(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	created, err := service.CreateProduct(models.ProductView{
		Name:            "Desk",
		Price:           floatPtr(199.99),
		InventoryStatus: "BOGUS",
	})

	assert.Nil(t, created)
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "inventory status")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)

	// Collected alongside the other violations, not reported alone.
	_, err = service.CreateProduct(models.ProductView{Name: "", InventoryStatus: "BOGUS"})
	assert.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Violations, 3)
}

func TestProductService_UpdateProduct_RejectsUnknownInventoryStatus(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	updated, err := service.UpdateProduct(1, models.ProductView{
		Name:            "Desk",
		Price:           floatPtr(199.99),
		InventoryStatus: "BOGUS",
	})

	assert.Nil(t, updated)
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "inventory status")
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestProductService_CreateProduct_KeepsFreeClientCode(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("ExistsByCode", "mycode123").Return(false, nil).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	created, err := service.CreateProduct(models.ProductView{
		Name:  "Desk",
		Price: floatPtr(199.99),
		Code:  "mycode123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "mycode123", created.Code)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_ReplacesDuplicateClientCode(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	// The client-supplied code is taken, so a fresh one is generated
	// silently instead of failing.
	mockRepo.On("ExistsByCode", "taken1234").Return(true, nil).Once()
	mockRepo.On("ExistsByCode", mock.AnythingOfType("string")).Return(false, nil)
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	created, err := service.CreateProduct(models.ProductView{
		Name:  "Desk",
		Price: floatPtr(199.99),
		Code:  "taken1234",
	})

	assert.NoError(t, err)
	assert.NotEqual(t, "taken1234", created.Code)
	assert.Regexp(t, codePattern, created.Code)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_RetriesOnSaveConflict(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	// The pre-check passes but the store rejects the code at save time
	// (lost race against a concurrent create). The save must be retried
	// with a fresh code, not surfaced as an error.
	mockRepo.On("ExistsByCode", mock.AnythingOfType("string")).Return(false, nil)
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(repositories.ErrDuplicateCode).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = 3
	}).Return(nil).Once()

	created, err := service.CreateProduct(models.ProductView{Name: "Desk", Price: floatPtr(199.99)})

	assert.NoError(t, err)
	assert.Equal(t, uint(3), created.ID)
	assert.Regexp(t, codePattern, created.Code)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_WrapsStoreFailure(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	storeErr := fmt.Errorf("database unavailable")
	mockRepo.On("ExistsByCode", mock.AnythingOfType("string")).Return(false, nil)
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(storeErr).Once()

	created, err := service.CreateProduct(models.ProductView{Name: "Desk", Price: floatPtr(199.99)})

	assert.Nil(t, created)
	var internalErr *services.InternalError
	assert.ErrorAs(t, err, &internalErr)
	assert.ErrorIs(t, err, storeErr)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	createdAt := time.Now().Add(-time.Hour)
	stored := &models.Product{
		ID:              1,
		Code:            "abc123def",
		Name:            "Desk",
		Price:           199.99,
		Quantity:        5,
		InventoryStatus: models.InventoryInStock,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}

	mockRepo.On("GetByID", uint(1)).Return(stored, nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	updated, err := service.UpdateProduct(1, models.ProductView{
		Name:            "Standing Desk",
		Price:           floatPtr(299.99),
		Quantity:        intPtr(3),
		InventoryStatus: "LOWSTOCK",
	})

	assert.NoError(t, err)
	// id, code and createdAt survive the update untouched
	assert.Equal(t, uint(1), updated.ID)
	assert.Equal(t, "abc123def", updated.Code)
	assert.Equal(t, createdAt.UnixMilli(), updated.CreatedAt)
	// mutable fields are fully replaced and updatedAt moves forward
	assert.Equal(t, "Standing Desk", updated.Name)
	assert.Equal(t, 299.99, *updated.Price)
	assert.Equal(t, 3, *updated.Quantity)
	assert.Equal(t, "LOWSTOCK", updated.InventoryStatus)
	assert.GreaterOrEqual(t, updated.UpdatedAt, updated.CreatedAt)
	assert.Greater(t, updated.UpdatedAt, createdAt.UnixMilli())
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct_FullReplace(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	stored := &models.Product{
		ID:              1,
		Code:            "abc123def",
		Name:            "Desk",
		Description:     "A desk",
		Price:           199.99,
		Quantity:        5,
		Rating:          4,
		InventoryStatus: models.InventoryInStock,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	mockRepo.On("GetByID", uint(1)).Return(stored, nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	// Fields absent from the input zero out: update is a replace, not a patch.
	updated, err := service.UpdateProduct(1, models.ProductView{Name: "Desk"})

	assert.NoError(t, err)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, 0.0, *updated.Price)
	assert.Equal(t, 0, *updated.Quantity)
	assert.Equal(t, 0, *updated.Rating)
	// An absent status falls back to the default, never an empty tag.
	assert.Equal(t, "INSTOCK", updated.InventoryStatus)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProduct_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	mockRepo.On("GetByID", uint(99)).Return(nil, repositories.ErrProductNotFound).Once()

	updated, err := service.UpdateProduct(99, models.ProductView{Name: "Ghost", Price: floatPtr(1)})

	assert.Nil(t, updated)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil)

	// Test successful deletion
	mockRepo.On("ExistsByID", uint(1)).Return(true, nil).Once()
	mockRepo.On("Delete", uint(1)).Return(nil).Once()
	err := service.DeleteProduct(1)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test deletion of a nonexistent product
	mockRepo.On("ExistsByID", uint(99)).Return(false, nil).Once()
	err = service.DeleteProduct(99)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	mockRepo.AssertNotCalled(t, "Delete", uint(99))
	mockRepo.AssertExpectations(t)
}

// TestProductService_CreateThenGet drives the service against the in-memory
// repository to check the round trip end to end.
func TestProductService_CreateThenGet(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil)

	created, err := service.CreateProduct(models.ProductView{
		Name:        "Desk",
		Description: "Oak desk",
		Price:       floatPtr(199.99),
	})
	assert.NoError(t, err)

	fetched, err := service.GetProduct(created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created, fetched)

	// A second create with the first product's code gets a different one.
	second, err := service.CreateProduct(models.ProductView{
		Name:  "Chair",
		Price: floatPtr(89.99),
		Code:  created.Code,
	})
	assert.NoError(t, err)
	assert.NotEqual(t, created.Code, second.Code)
	assert.Regexp(t, codePattern, second.Code)

	// Delete then get reports not found.
	assert.NoError(t, service.DeleteProduct(created.ID))
	_, err = service.GetProduct(created.ID)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
}

func TestProductService_LifecycleEvents(t *testing.T) {
	repo := repositories.NewMockProductRepository()
	publisher := &capturingPublisher{}
	service := services.NewProductService(repo, publisher)

	created, err := service.CreateProduct(models.ProductView{Name: "Desk", Price: floatPtr(199.99)})
	assert.NoError(t, err)

	_, err = service.UpdateProduct(created.ID, models.ProductView{Name: "Standing Desk", Price: floatPtr(299.99)})
	assert.NoError(t, err)

	assert.NoError(t, service.DeleteProduct(created.ID))

	assert.Len(t, publisher.events, 3)

	assert.Equal(t, "product.created", publisher.events[0].RoutingKey)
	assert.Equal(t, created.Code, publisher.events[0].Payload["code"])
	assert.Equal(t, "Desk", publisher.events[0].Payload["name"])

	assert.Equal(t, "product.updated", publisher.events[1].RoutingKey)
	assert.Equal(t, "Standing Desk", publisher.events[1].Payload["name"])

	// The delete event carries only the id: the record is gone, so there
	// are no other fields to report.
	assert.Equal(t, "product.deleted", publisher.events[2].RoutingKey)
	assert.Equal(t, float64(created.ID), publisher.events[2].Payload["productID"])
	assert.NotContains(t, publisher.events[2].Payload, "code")
	assert.NotContains(t, publisher.events[2].Payload, "name")
}
