package shopee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kitlim/shopee-cli/internal/session"
)

// Order list type filters accepted by the order API.
const (
	OrderTypeAll = iota
	OrderTypeToPay
	OrderTypeToShip
	OrderTypeShipping
	OrderTypeCompleted
	OrderTypeCancelled
	OrderTypeReturnRefund
)

var OrderStatusLabels = map[int]string{
	OrderTypeAll:          "All",
	OrderTypeToPay:        "To Pay",
	OrderTypeToShip:       "To Ship",
	OrderTypeShipping:     "Shipping",
	OrderTypeCompleted:    "Completed",
	OrderTypeCancelled:    "Cancelled",
	OrderTypeReturnRefund: "Return/Refund",
}

// OrderQuery filters the order list.
type OrderQuery struct {
	ListType int
	Limit    int
	Offset   int
}

// Response structure: new_data.order_or_checkout_data[].order_list_detail

type orderListResponse struct {
	NewData struct {
		Entries []struct {
			Detail orderListDetail `json:"order_list_detail"`
		} `json:"order_or_checkout_data"`
	} `json:"new_data"`
}

type orderListDetail struct {
	Status struct {
		StatusLabel struct {
			Text string `json:"text"`
		} `json:"status_label"`
	} `json:"status"`
	InfoCard struct {
		OrderListCards []orderCard `json:"order_list_cards"`
	} `json:"info_card"`
}

type orderCard struct {
	OrderID  int64 `json:"order_id"`
	ShopInfo struct {
		ShopName string `json:"shop_name"`
	} `json:"shop_info"`
	ProductInfo struct {
		ItemGroups []struct {
			Items []struct {
				Name       string `json:"name"`
				ModelName  string `json:"model_name"`
				Amount     int    `json:"amount"`
				OrderPrice int64  `json:"order_price"`
				Image      string `json:"image"`
			} `json:"items"`
		} `json:"item_groups"`
	} `json:"product_info"`
}

// GetOrders fetches the buyer's order list through the in-page API.
func GetOrders(ctx context.Context, s *session.Session, q OrderQuery) ([]Order, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}

	params := url.Values{}
	params.Set("list_type", strconv.Itoa(q.ListType))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	body, err := s.Get(ctx, "/order/get_all_order_and_checkout_list", params)
	if err != nil {
		return nil, err
	}

	var resp orderListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("shopee: decode order list: %w", err)
	}
	return parseOrders(&resp), nil
}

func parseOrders(resp *orderListResponse) []Order {
	var orders []Order
	for _, entry := range resp.NewData.Entries {
		status := entry.Detail.Status.StatusLabel.Text
		for _, card := range entry.Detail.InfoCard.OrderListCards {
			order := Order{
				OrderID:  card.OrderID,
				Status:   status,
				ShopName: card.ShopInfo.ShopName,
			}
			for _, group := range card.ProductInfo.ItemGroups {
				for _, item := range group.Items {
					qty := item.Amount
					if qty == 0 {
						qty = 1
					}
					order.Items = append(order.Items, OrderItem{
						Name:     item.Name,
						Model:    item.ModelName,
						Quantity: qty,
						// prices come back scaled by 100000
						Price: float64(item.OrderPrice) / 100000,
						Image: item.Image,
					})
				}
			}
			orders = append(orders, order)
		}
	}
	return orders
}
