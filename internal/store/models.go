package store

import "time"

// Watch is a product whose price is tracked over time.
type Watch struct {
	ID        int64     `json:"id"`
	ShopID    int64     `json:"shop_id"`
	ItemID    int64     `json:"item_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PricePoint is one recorded price for a watched product.
type PricePoint struct {
	ID         int64     `json:"id"`
	WatchID    int64     `json:"watch_id"`
	Price      float64   `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}
