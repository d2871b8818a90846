package shopee

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kitlim/shopee-cli/internal/session"
)

// The product detail API is protected by af-ac-enc-dat request signing,
// so product info comes from navigating to the page and parsing the
// rendered text instead.
const extractProductJS = `
(() => {
	const h1 = document.querySelector('h1');
	return {
		name: h1 ? h1.innerText.trim() : '',
		body: document.body.innerText,
	};
})()`

var ErrBadProductURL = errors.New("shopee: unrecognized product URL")

var (
	ratingSoldRe  = regexp.MustCompile(`(\d\.\d)\n([\d.]+k?)\nRatings\n([\d.]+k?\+?) Sold`)
	priceRe       = regexp.MustCompile(`\nRM([\d,.]+)`)
	origPriceRe   = regexp.MustCompile(`\nRM[\d,.]+\nRM([\d,.]+)\n(-\d+%)`)
	productPathRe = regexp.MustCompile(`/product/(\d+)/(\d+)`)
)

type rawProductPage struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// GetProduct navigates to the product page and scrapes the detail view.
func GetProduct(ctx context.Context, s *session.Session, id ProductID) (*Product, error) {
	path := fmt.Sprintf("/product/%d/%d", id.ShopID, id.ItemID)
	if err := s.Navigate(ctx, s.SiteURL(path)); err != nil {
		return nil, err
	}

	var raw rawProductPage
	if err := s.Eval(ctx, extractProductJS, &raw); err != nil {
		return nil, err
	}
	return parseProductPage(raw), nil
}

func parseProductPage(raw rawProductPage) *Product {
	p := &Product{Name: raw.Name}
	body := raw.Body

	// "4.8\n1.6k\nRatings\n6k+ Sold"
	if m := ratingSoldRe.FindStringSubmatch(body); m != nil {
		p.Rating = m[1]
		p.RatingCount = m[2]
		p.Sold = m[3]
	}

	// Prices appear shortly after the "Sold" block
	if idx := strings.Index(body, "Sold\n"); idx >= 0 {
		section := body[idx:]
		if len(section) > 300 {
			section = section[:300]
		}
		if m := priceRe.FindStringSubmatch(section); m != nil {
			p.Price = m[1]
		}
		if m := origPriceRe.FindStringSubmatch(section); m != nil {
			p.OriginalPrice = m[1]
			p.Discount = m[2]
		}
	}

	for _, marker := range []string{"Product Description\n", "PRODUCT DETAILS\n"} {
		idx := strings.Index(body, marker)
		if idx < 0 {
			continue
		}
		desc := body[idx+len(marker):]
		for _, end := range []string{"RATINGS AND REVIEWS", "Ratings and Reviews", "From the same shop"} {
			if e := strings.Index(desc, end); e >= 0 {
				desc = desc[:e]
				break
			}
		}
		desc = strings.TrimSpace(desc)
		if len(desc) > 1000 {
			desc = desc[:1000]
		}
		p.Description = desc
		break
	}

	return p
}

// ParseProductURL extracts the shop and item IDs from a product link.
// Three formats are accepted:
//
//	https://shopee.com.my/Product-Name-i.{shop_id}.{item_id}
//	https://shopee.com.my/product/{shop_id}/{item_id}
//	anything ending in .{shop_id}.{item_id}
func ParseProductURL(u string) (ProductID, error) {
	if m := productPathRe.FindStringSubmatch(u); m != nil {
		shop, _ := strconv.ParseInt(m[1], 10, 64)
		item, _ := strconv.ParseInt(m[2], 10, 64)
		return ProductID{ShopID: shop, ItemID: item}, nil
	}
	if m := productIDRe.FindStringSubmatch(u); m != nil {
		shop, _ := strconv.ParseInt(m[1], 10, 64)
		item, _ := strconv.ParseInt(m[2], 10, 64)
		return ProductID{ShopID: shop, ItemID: item}, nil
	}

	parts := strings.Split(strings.TrimRight(u, "/"), ".")
	if len(parts) >= 2 {
		item, err1 := strconv.ParseInt(parts[len(parts)-1], 10, 64)
		shop, err2 := strconv.ParseInt(parts[len(parts)-2], 10, 64)
		if err1 == nil && err2 == nil {
			return ProductID{ShopID: shop, ItemID: item}, nil
		}
	}
	return ProductID{}, ErrBadProductURL
}
