package model

import "time"

// Validation messages for product fields.
const (
	MsgTitleRequired = "Must Provide Product Title!"
	MsgImageRequired = "Must Provide Product Image Link!"
	MsgPriceRequired = "Must Provide Product Price!"
	MsgPriceNegative = "Product Price Must Not Be Negative!"
	MsgTitleTooLong  = "Product Title Is Too Long!"
)

// MaxProductTitleLength bounds the product title.
const MaxProductTitleLength = 200

// Product is a catalog item stored in the product table.
type Product struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Price        float64   `json:"price"`
	ProductImage string    `json:"productImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateProductRequest is the body of POST /products.
// Price is a pointer so a missing price is distinguishable from zero.
type CreateProductRequest struct {
	Title        string   `json:"title"`
	Price        *float64 `json:"price"`
	ProductImage string   `json:"productImage"`
}

// Validate returns every field problem with the request.
func (r *CreateProductRequest) Validate() []FieldError {
	var errors []FieldError

	switch {
	case r.Title == "":
		errors = append(errors, FieldError{Field: "title", Message: MsgTitleRequired})
	case len(r.Title) > MaxProductTitleLength:
		errors = append(errors, FieldError{Field: "title", Message: MsgTitleTooLong})
	}

	if r.ProductImage == "" {
		errors = append(errors, FieldError{Field: "productImage", Message: MsgImageRequired})
	}

	switch {
	case r.Price == nil:
		errors = append(errors, FieldError{Field: "price", Message: MsgPriceRequired})
	case *r.Price < 0:
		errors = append(errors, FieldError{Field: "price", Message: MsgPriceNegative})
	}

	return errors
}
