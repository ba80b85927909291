package domain

type Product struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Thumbnails  []string `json:"thumbnail"`
	Status      bool     `json:"status"`
}

// ProductUpdate lists every field a client may change. Nil means untouched.
type ProductUpdate struct {
	Code        *string   `json:"code,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Thumbnails  *[]string `json:"thumbnail,omitempty"`
	Status      *bool     `json:"status,omitempty"`
}

// IsEmpty reports whether no field is set.
func (u ProductUpdate) IsEmpty() bool {
	return u.Code == nil && u.Title == nil && u.Description == nil && u.Price == nil &&
		u.Stock == nil && u.Category == nil && u.Thumbnails == nil && u.Status == nil
}

type ProductFilter struct {
	Category string
	Stock    *int
}

type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type PageRequest struct {
	Page  int
	Limit int
	Sort  SortOrder
}

type ProductList struct {
	Products   []*Product
	TotalCount int64
}
