package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prices travel as JSON numbers, not strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Prices are stored as NUMERIC(12,2): two decimal places, below 10^10.
const PriceScale = 2

// PriceLimit is the exclusive upper bound of a storable price.
var PriceLimit = decimal.New(1, 10)

// RoundPrice rounds p half away from zero to the stored scale.
func RoundPrice(p decimal.Decimal) decimal.Decimal {
	return p.Round(PriceScale)
}

// Product is a catalog entry. Images are kept apart from the row and only
// reach callers flattened into a ProductDetail.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description *string         `json:"description"`
	Slug        string          `json:"slug"`
	Stock       int             `json:"stock"`
	Sizes       []string        `json:"sizes"`
	Gender      Gender          `json:"gender"`
	Tags        []string        `json:"tags"`
	UserID      *string         `json:"user_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Images []ProductImage `json:"-"`
}

// ProductImage is one image row owned by a product. Position preserves the
// order in which the images were supplied.
type ProductImage struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	URL       string `json:"url"`
	Position  int    `json:"position"`
}

// NewProductImages builds image rows for productID from urls in order.
// newID supplies row identifiers.
func NewProductImages(productID string, urls []string, newID func() string) []ProductImage {
	images := make([]ProductImage, len(urls))
	for i, u := range urls {
		images[i] = ProductImage{ID: newID(), ProductID: productID, URL: u, Position: i}
	}
	return images
}

// ImageURLs flattens images to their URLs. The result is never nil.
func ImageURLs(images []ProductImage) []string {
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.URL
	}
	return urls
}

// ProductDetail is the outward shape of a product with its image URLs.
type ProductDetail struct {
	Product
	Images []string `json:"images"`
}

// NewProductDetail flattens p's images. A nil Tags or Sizes slice is
// reported as empty.
func NewProductDetail(p *Product) *ProductDetail {
	d := &ProductDetail{Product: *p, Images: ImageURLs(p.Images)}
	d.Product.Images = nil
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.Sizes == nil {
		d.Sizes = []string{}
	}
	return d
}

// ProductPage is one page of a gender-filtered listing.
type ProductPage struct {
	Count    int             `json:"count"`
	Pages    int             `json:"pages"`
	Products []ProductDetail `json:"products"`
}
