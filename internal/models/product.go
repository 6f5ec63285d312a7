package models

import "time"

// InventoryStatus describes the stock level category of a product,
// independent of the raw quantity count.
type InventoryStatus string

const (
	InventoryInStock    InventoryStatus = "INSTOCK"
	InventoryLowStock   InventoryStatus = "LOWSTOCK"
	InventoryOutOfStock InventoryStatus = "OUTOFSTOCK"
)

// Valid reports whether the status is one of the three enumeration tags.
func (s InventoryStatus) Valid() bool {
	switch s {
	case InventoryInStock, InventoryLowStock, InventoryOutOfStock:
		return true
	}
	return false
}

// Product represents a catalog item in the store.
type Product struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	Code              string          `json:"code" gorm:"uniqueIndex;type:varchar(64);not null"`
	Name              string          `json:"name" gorm:"not null"`
	Description       string          `json:"description" gorm:"type:varchar(1000)"`
	Image             string          `json:"image"`
	Category          string          `json:"category"`
	Price             float64         `json:"price" gorm:"not null"`
	Quantity          int             `json:"quantity"`
	InternalReference string          `json:"internal_reference"`
	ShellID           int64           `json:"shell_id"`
	InventoryStatus   InventoryStatus `json:"inventory_status" gorm:"type:varchar(16);not null"`
	Rating            int             `json:"rating"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductView is the boundary representation of a product used across the
// API. Timestamps are epoch milliseconds; optional numeric fields are
// pointers so an absent field can be told apart from an explicit zero.
type ProductView struct {
	ID                uint     `json:"id"`
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Image             string   `json:"image,omitempty"`
	Category          string   `json:"category,omitempty"`
	Price             *float64 `json:"price"`
	Quantity          *int     `json:"quantity"`
	InternalReference string   `json:"internalReference,omitempty"`
	ShellID           *int64   `json:"shellId"`
	InventoryStatus   string   `json:"inventoryStatus"`
	Rating            *int     `json:"rating"`
	CreatedAt         int64    `json:"createdAt"`
	UpdatedAt         int64    `json:"updatedAt"`
}

// View maps the entity to its boundary representation.
func (p *Product) View() ProductView {
	price := p.Price
	quantity := p.Quantity
	shellID := p.ShellID
	rating := p.Rating
	return ProductView{
		ID:                p.ID,
		Code:              p.Code,
		Name:              p.Name,
		Description:       p.Description,
		Image:             p.Image,
		Category:          p.Category,
		Price:             &price,
		Quantity:          &quantity,
		InternalReference: p.InternalReference,
		ShellID:           &shellID,
		InventoryStatus:   string(p.InventoryStatus),
		Rating:            &rating,
		CreatedAt:         p.CreatedAt.UnixMilli(),
		UpdatedAt:         p.UpdatedAt.UnixMilli(),
	}
}

// ApplyTo overwrites every mutable field of the entity with the values in
// the view. Absent optional fields reset to their zero value: an update is
// a full replace of mutable fields, not a partial patch. ID, Code and
// CreatedAt are never touched here.
func (v *ProductView) ApplyTo(p *Product) {
	p.Name = v.Name
	p.Description = v.Description
	p.Image = v.Image
	p.Category = v.Category
	p.Price = 0
	if v.Price != nil {
		p.Price = *v.Price
	}
	p.Quantity = 0
	if v.Quantity != nil {
		p.Quantity = *v.Quantity
	}
	p.InternalReference = v.InternalReference
	p.ShellID = 0
	if v.ShellID != nil {
		p.ShellID = *v.ShellID
	}
	p.InventoryStatus = InventoryStatus(v.InventoryStatus)
	p.Rating = 0
	if v.Rating != nil {
		p.Rating = *v.Rating
	}
}
