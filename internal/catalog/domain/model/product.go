package model

// Product is an item offered in the storefront.
type Product struct {
	ID       string  `json:"id,omitempty" mapstructure:"id,omitempty" validate:"-"`
	Name     string  `json:"name" mapstructure:"name" validate:"required"`
	Price    float64 `json:"price" mapstructure:"price" validate:"finite,gte=0"`
	Category string  `json:"category" mapstructure:"category" validate:"required"`
	ImageURL string  `json:"imageUrl,omitempty" mapstructure:"imageUrl,omitempty" validate:"omitempty"`
}

// Category groups products by a free-text value. Products reference it by value,
// without any integrity check.
type Category struct {
	ID    string `json:"id,omitempty" mapstructure:"id,omitempty" validate:"-"`
	Name  string `json:"name" mapstructure:"name" validate:"required"`
	Value string `json:"value" mapstructure:"value" validate:"required"`
}
