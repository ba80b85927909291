package domain

import "time"

type Cart struct {
	ID        string     `json:"id"`
	Lines     []LineItem `json:"products"`
	Version   int64      `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PopulatedCart is the read model returned to views and API clients.
// Product is nil when the referenced product no longer exists.
type PopulatedCart struct {
	ID        string          `json:"id"`
	Lines     []PopulatedLine `json:"products"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type PopulatedLine struct {
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

// Total sums price * quantity over the lines whose product resolved.
func (c PopulatedCart) Total() float64 {
	var total float64
	for _, l := range c.Lines {
		if l.Product != nil {
			total += l.Product.Price * float64(l.Quantity)
		}
	}
	return total
}

// Clone returns a copy whose Lines can be mutated without touching c.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Lines = make([]LineItem, len(c.Lines))
	copy(out.Lines, c.Lines)
	return &out
}
