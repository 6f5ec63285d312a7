package services

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"shop/internal/models"
	"shop/internal/repositories"
)

const (
	codeLength   = 9
	codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// EventPublisher publishes product lifecycle events. *rabbitmq.Client
// satisfies it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductService handles business logic related to products: validation,
// default values, unique code generation and lifecycle timestamps.
type ProductService struct {
	repo   repositories.ProductRepository
	events EventPublisher // optional, nil skips event publishing
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, events EventPublisher) *ProductService {
	return &ProductService{
		repo:   repo,
		events: events,
	}
}

// ListProducts retrieves all products in store order.
func (s *ProductService) ListProducts() ([]models.ProductView, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return nil, &InternalError{Op: "list products", Err: err}
	}
	views := make([]models.ProductView, 0, len(products))
	for i := range products {
		views = append(views, products[i].View())
	}
	return views, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(id uint) (*models.ProductView, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Printf("Error getting product %d: %v", id, err)
		return nil, &InternalError{Op: "get product", Err: err}
	}
	view := product.View()
	return &view, nil
}

// CreateProduct validates the input, resolves a unique code, applies
// defaults and timestamps and persists the product. The returned view
// includes the store-assigned ID.
func (s *ProductService) CreateProduct(view models.ProductView) (*models.ProductView, error) {
	if err := validateProduct(view); err != nil {
		return nil, err
	}

	code := view.Code
	if code == "" {
		generated, err := s.generateUniqueCode()
		if err != nil {
			log.Printf("Error generating code for product %q: %v", view.Name, err)
			return nil, &InternalError{Op: "create product", Err: err}
		}
		code = generated
	} else {
		taken, err := s.repo.ExistsByCode(code)
		if err != nil {
			log.Printf("Error checking code %q: %v", code, err)
			return nil, &InternalError{Op: "create product", Err: err}
		}
		if taken {
			// A duplicate client-supplied code is silently replaced with a
			// generated one rather than rejected.
			generated, err := s.generateUniqueCode()
			if err != nil {
				log.Printf("Error generating code for product %q: %v", view.Name, err)
				return nil, &InternalError{Op: "create product", Err: err}
			}
			code = generated
		}
	}

	var product models.Product
	view.ApplyTo(&product)
	product.Code = code
	if product.InventoryStatus == "" {
		product.InventoryStatus = models.InventoryInStock
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	for {
		err := s.repo.Create(&product)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrDuplicateCode) {
			// A concurrent create won the race for this code between our
			// pre-check and the save. The store's unique constraint is the
			// source of truth, so regenerate and retry the save.
			log.Printf("Code %q taken at save time, regenerating", product.Code)
			generated, genErr := s.generateUniqueCode()
			if genErr != nil {
				log.Printf("Error regenerating code for product %q: %v", view.Name, genErr)
				return nil, &InternalError{Op: "create product", Err: genErr}
			}
			product.Code = generated
			continue
		}
		log.Printf("Error creating product %+v: %v", view, err)
		return nil, &InternalError{Op: "create product", Err: err}
	}

	s.publishEvent("product.created", productEventPayload(&product))

	result := product.View()
	return &result, nil
}

// UpdateProduct overwrites every mutable field of an existing product with
// the values in the view and refreshes UpdatedAt. ID, Code and CreatedAt
// are never altered.
func (s *ProductService) UpdateProduct(id uint, view models.ProductView) (*models.ProductView, error) {
	if view.InventoryStatus != "" && !models.InventoryStatus(view.InventoryStatus).Valid() {
		return nil, &ValidationError{Violations: []string{
			"product inventory status must be one of INSTOCK, LOWSTOCK, OUTOFSTOCK",
		}}
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Printf("Error getting product %d for update: %v", id, err)
		return nil, &InternalError{Op: "update product", Err: err}
	}

	view.ApplyTo(product)
	if product.InventoryStatus == "" {
		product.InventoryStatus = models.InventoryInStock
	}
	product.UpdatedAt = time.Now()

	if err := s.repo.Update(product); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Printf("Error updating product %d with %+v: %v", id, view, err)
		return nil, &InternalError{Op: "update product", Err: err}
	}

	s.publishEvent("product.updated", productEventPayload(product))

	result := product.View()
	return &result, nil
}

// DeleteProduct removes a product permanently.
func (s *ProductService) DeleteProduct(id uint) error {
	exists, err := s.repo.ExistsByID(id)
	if err != nil {
		log.Printf("Error checking product %d for deletion: %v", id, err)
		return &InternalError{Op: "delete product", Err: err}
	}
	if !exists {
		return ErrProductNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return ErrProductNotFound
		}
		log.Printf("Error deleting product %d: %v", id, err)
		return &InternalError{Op: "delete product", Err: err}
	}

	// Only the id survives the delete, so the event carries only the id.
	s.publishEvent("product.deleted", map[string]interface{}{"productID": id})

	return nil
}

// generateUniqueCode produces a 9-character lowercase alphanumeric code not
// present in the store. The loop is unbounded by contract; the code space
// (36^9) makes repeated collisions astronomically unlikely.
func (s *ProductService) generateUniqueCode() (string, error) {
	for {
		code := randomCode(codeLength)
		taken, err := s.repo.ExistsByCode(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

func randomCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

// validateProduct collects every violated rule so the caller sees all of
// them at once, not just the first.
func validateProduct(view models.ProductView) error {
	var violations []string
	if strings.TrimSpace(view.Name) == "" {
		violations = append(violations, "product name is required")
	}
	if view.Price == nil {
		violations = append(violations, "product price is required")
	} else if *view.Price < 0 {
		violations = append(violations, "product price cannot be negative")
	}
	if view.InventoryStatus != "" && !models.InventoryStatus(view.InventoryStatus).Valid() {
		violations = append(violations, "product inventory status must be one of INSTOCK, LOWSTOCK, OUTOFSTOCK")
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// publishEvent publishes a product lifecycle event. Publish failures are
// logged and never fail the request.
func (s *ProductService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

func productEventPayload(product *models.Product) map[string]interface{} {
	return map[string]interface{}{
		"productID": product.ID,
		"code":      product.Code,
		"name":      product.Name,
	}
}
