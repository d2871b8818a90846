package shopee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSearchItem(t *testing.T) {
	raw := rawSearchItem{
		Href: "/Wireless-Mouse-Ergonomic-i.178391.8839921",
		Texts: []string{
			"Wireless Mouse Ergonomic",
			"RM",
			"25.90",
			"-35%",
			"4.8",
			"5k+ sold",
			"2-4 days",
			"Selangor",
			"Find Similar",
		},
	}

	item := parseSearchItem(raw)
	assert.Equal(t, "Wireless Mouse Ergonomic", item.Name)
	assert.Equal(t, 25.90, item.Price)
	assert.Equal(t, "4.8", item.Rating)
	assert.Equal(t, "5k+ sold", item.Sold)
	assert.Equal(t, "Selangor", item.Location)
	assert.Equal(t, int64(178391), item.ShopID)
	assert.Equal(t, int64(8839921), item.ItemID)
}

func TestParseSearchItemThousandsSeparator(t *testing.T) {
	item := parseSearchItem(rawSearchItem{
		Texts: []string{"Gaming Laptop", "RM", "3,499.00", "4.9", "120 sold", "Kuala Lumpur"},
	})
	assert.Equal(t, 3499.0, item.Price)
}

func TestParseSearchItemSparseCard(t *testing.T) {
	item := parseSearchItem(rawSearchItem{
		Href:  "/no-ids-here",
		Texts: []string{"Mystery Listing"},
	})

	assert.Equal(t, "Mystery Listing", item.Name)
	assert.Zero(t, item.Price)
	assert.Empty(t, item.Rating)
	assert.Empty(t, item.Sold)
	assert.Zero(t, item.ShopID)
	assert.Zero(t, item.ItemID)
}

func TestParseSearchItemSkipsChromeLines(t *testing.T) {
	item := parseSearchItem(rawSearchItem{
		Texts: []string{"Phone Case", "RM", "9.90", "4.5", "300 sold", "Johor", "Find Similar"},
	})
	assert.Equal(t, "Johor", item.Location)
}
