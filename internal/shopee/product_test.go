package shopee

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPageBody = `Shopee
Home
Electronics
Wireless Mouse
4.8
1.6k
Ratings
6k+ Sold
RM12.90
RM19.90
-35%
Shipping
Free shipping
Product Description
A comfortable wireless mouse with silent clicks.
Battery lasts up to 12 months.
Ratings and Reviews
Great mouse!`

func TestParseProductPage(t *testing.T) {
	p := parseProductPage(rawProductPage{
		Name: "Wireless Mouse",
		Body: productPageBody,
	})

	assert.Equal(t, "Wireless Mouse", p.Name)
	assert.Equal(t, "4.8", p.Rating)
	assert.Equal(t, "1.6k", p.RatingCount)
	assert.Equal(t, "6k+", p.Sold)
	assert.Equal(t, "12.90", p.Price)
	assert.Equal(t, "19.90", p.OriginalPrice)
	assert.Equal(t, "-35%", p.Discount)
	assert.Contains(t, p.Description, "silent clicks")
	assert.NotContains(t, p.Description, "Great mouse!", "reviews are not part of the description")
}

func TestParseProductPageNoDiscount(t *testing.T) {
	body := "Widget\n4.5\n200\nRatings\n900 Sold\nRM45.00\nShipping"
	p := parseProductPage(rawProductPage{Name: "Widget", Body: body})

	assert.Equal(t, "45.00", p.Price)
	assert.Empty(t, p.OriginalPrice)
	assert.Empty(t, p.Discount)
}

func TestParseProductPageEmptyBody(t *testing.T) {
	p := parseProductPage(rawProductPage{Name: "", Body: ""})
	assert.Empty(t, p.Name)
	assert.Empty(t, p.Price)
	assert.Empty(t, p.Description)
}

func TestParseProductPageTruncatesDescription(t *testing.T) {
	body := "Product Description\n" + strings.Repeat("x", 2000)
	p := parseProductPage(rawProductPage{Body: body})
	assert.Len(t, p.Description, 1000)
}

func TestParseProductURL(t *testing.T) {
	cases := []struct {
		url  string
		want ProductID
	}{
		{"https://shopee.com.my/Wireless-Mouse-i.178391.8839921", ProductID{178391, 8839921}},
		{"https://shopee.com.my/product/178391/8839921", ProductID{178391, 8839921}},
		{"https://shopee.com.my/something.178391.8839921", ProductID{178391, 8839921}},
		{"https://shopee.com.my/product/178391/8839921?sp_atk=abc", ProductID{178391, 8839921}},
	}
	for _, tc := range cases {
		id, err := ParseProductURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.want, id, tc.url)
	}
}

func TestParseProductURLRejectsGarbage(t *testing.T) {
	_, err := ParseProductURL("https://shopee.com.my/cart")
	assert.ErrorIs(t, err, ErrBadProductURL)
}
