package shopee

// SearchItem is one product card scraped from the search results page.
type SearchItem struct {
	Name     string
	Price    float64
	Sold     string
	Rating   string
	Location string
	ShopID   int64
	ItemID   int64
	Href     string
}

// Product is the detail scraped from a product page.
type Product struct {
	Name          string
	Price         string
	OriginalPrice string
	Discount      string
	Rating        string
	RatingCount   string
	Sold          string
	Description   string
}

// ProductID identifies a product by its shop and item.
type ProductID struct {
	ShopID int64
	ItemID int64
}

// Order is a single order card from the order list.
type Order struct {
	OrderID  int64
	Status   string
	ShopName string
	Items    []OrderItem
}

// OrderItem is one purchased item within an order.
type OrderItem struct {
	Name     string
	Model    string
	Quantity int
	Price    float64
	Image    string
}
