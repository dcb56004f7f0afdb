package models

import "time"

// SellerProduct is a product as edited by its seller.
type SellerProduct struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" validate:"required"`
	Price       float64  `json:"price" validate:"gt=0"`
	Description string   `json:"description"`
	ImageRef    string   `json:"image,omitempty"`
	Available   bool     `json:"available"`
	PlaceIDs    []string `json:"placeIds" validate:"min=1,dive,required"`
}

// Product is the catalog view of a SellerProduct, including who sells it.
type Product struct {
	SellerProduct

	SellerID   string    `json:"sellerId"`
	SellerName string    `json:"sellerName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProductPatch is a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Title       *string  `validate:"omitempty,min=1"`
	Price       *float64 `validate:"omitempty,gt=0"`
	Description *string
	ImageRef    *string
	Available   *bool
	PlaceIDs    []string `validate:"omitempty,min=1,dive,required"`
}

// Apply returns a copy of p with the patch applied.
func (pp ProductPatch) Apply(p Product) Product {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.ImageRef != nil {
		p.ImageRef = *pp.ImageRef
	}
	if pp.Available != nil {
		p.Available = *pp.Available
	}
	if pp.PlaceIDs != nil {
		p.PlaceIDs = append([]string(nil), pp.PlaceIDs...)
	}
	return p
}

func (pp ProductPatch) Empty() bool {
	return pp.Title == nil && pp.Price == nil && pp.Description == nil &&
		pp.ImageRef == nil && pp.Available == nil && pp.PlaceIDs == nil
}
