// Package shopee scrapes product data from shopee.com.my through a
// browser session. The search and product API endpoints are protected
// by anti-bot request signing, so those go through page navigation and
// DOM extraction; the order list API is reachable with plain cookies.
package shopee

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kitlim/shopee-cli/internal/session"
)

// extractSearchJS pulls the raw text lines and link out of every result
// card. Parsing the lines into fields happens Go-side where it can be
// tested against captured fixtures.
const extractSearchJS = `
(() => {
	const items = document.querySelectorAll('[data-sqe="item"]');
	const results = [];
	for (const item of items) {
		const link = item.querySelector('a[href]');
		const texts = item.innerText.split("\n").filter(t => t.trim());
		results.push({
			href: link ? link.getAttribute("href") : "",
			texts: texts,
		});
	}
	return results;
})()`

// SortBy values accepted by the search page.
var SortOptions = []string{"relevancy", "sales", "price", "ctime"}

// SearchQuery describes one search request.
type SearchQuery struct {
	Keyword string
	Limit   int
	SortBy  string
	Page    int // 1-indexed
}

type rawSearchItem struct {
	Href  string   `json:"href"`
	Texts []string `json:"texts"`
}

var (
	ratingRe    = regexp.MustCompile(`^\d\.\d$`)
	productIDRe = regexp.MustCompile(`-i\.(\d+)\.(\d+)`)
)

// Search navigates to the search results page and scrapes the product
// cards from the DOM.
func Search(ctx context.Context, s *session.Session, q SearchQuery) ([]SearchItem, error) {
	if q.SortBy == "" {
		q.SortBy = "relevancy"
	}
	if q.Page < 1 {
		q.Page = 1
	}

	params := url.Values{}
	params.Set("keyword", q.Keyword)
	params.Set("by", q.SortBy)
	// the search page is 0-indexed
	params.Set("page", strconv.Itoa(q.Page-1))

	if err := s.Navigate(ctx, s.SiteURL("/search?"+params.Encode())); err != nil {
		return nil, err
	}

	var raw []rawSearchItem
	if err := s.Eval(ctx, extractSearchJS, &raw); err != nil {
		return nil, err
	}

	if q.Limit > 0 && len(raw) > q.Limit {
		raw = raw[:q.Limit]
	}

	items := make([]SearchItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, parseSearchItem(r))
	}
	return items, nil
}

// parseSearchItem turns a result card's text lines into fields. The
// lines typically look like:
//
//	[name, "RM", price, discount?, promo?, rating, "Xk+ sold", delivery, location, "Find Similar"]
func parseSearchItem(r rawSearchItem) SearchItem {
	item := SearchItem{Href: r.Href}

	if len(r.Texts) > 0 {
		item.Name = r.Texts[0]
	}

	// Price is the number following a bare "RM" line
	for i, t := range r.Texts {
		if t == "RM" && i+1 < len(r.Texts) {
			if price, err := strconv.ParseFloat(strings.ReplaceAll(r.Texts[i+1], ",", ""), 64); err == nil {
				item.Price = price
			}
			break
		}
	}

	for _, t := range r.Texts {
		if strings.Contains(strings.ToLower(t), "sold") {
			item.Sold = t
			break
		}
	}

	for _, t := range r.Texts {
		if ratingRe.MatchString(t) {
			item.Rating = t
			break
		}
	}

	// Location is the last line that isn't UI chrome
	for i := len(r.Texts) - 1; i >= 0; i-- {
		t := r.Texts[i]
		if t == "Find Similar" || t == "Ad" || t == "Sponsored" || strings.HasPrefix(t, "< ") {
			continue
		}
		item.Location = t
		break
	}

	if m := productIDRe.FindStringSubmatch(r.Href); m != nil {
		item.ShopID, _ = strconv.ParseInt(m[1], 10, 64)
		item.ItemID, _ = strconv.ParseInt(m[2], 10, 64)
	}

	return item
}
