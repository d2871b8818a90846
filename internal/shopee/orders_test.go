package shopee

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderListFixture = `{
  "new_data": {
    "order_or_checkout_data": [
      {
        "order_list_detail": {
          "status": {"status_label": {"text": "Completed"}},
          "info_card": {
            "order_list_cards": [
              {
                "order_id": 221133445566,
                "shop_info": {"shop_name": "TechGear Official"},
                "product_info": {
                  "item_groups": [
                    {
                      "items": [
                        {
                          "name": "Wireless Mouse",
                          "model_name": "Black",
                          "amount": 2,
                          "order_price": 1290000,
                          "image": "abc123"
                        },
                        {
                          "name": "Mouse Pad",
                          "model_name": "",
                          "amount": 0,
                          "order_price": 590000,
                          "image": ""
                        }
                      ]
                    }
                  ]
                }
              }
            ]
          }
        }
      },
      {
        "order_list_detail": {
          "status": {"status_label": {"text": "Shipping"}},
          "info_card": {"order_list_cards": []}
        }
      }
    ]
  }
}`

func TestParseOrders(t *testing.T) {
	var resp orderListResponse
	require.NoError(t, json.Unmarshal([]byte(orderListFixture), &resp))

	orders := parseOrders(&resp)
	require.Len(t, orders, 1, "entries without cards produce no orders")

	o := orders[0]
	assert.Equal(t, int64(221133445566), o.OrderID)
	assert.Equal(t, "Completed", o.Status)
	assert.Equal(t, "TechGear Official", o.ShopName)
	require.Len(t, o.Items, 2)

	assert.Equal(t, "Wireless Mouse", o.Items[0].Name)
	assert.Equal(t, "Black", o.Items[0].Model)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, 12.90, o.Items[0].Price)
	assert.Equal(t, "abc123", o.Items[0].Image)

	assert.Equal(t, 1, o.Items[1].Quantity, "zero quantity defaults to one")
	assert.Equal(t, 5.90, o.Items[1].Price)
}

func TestParseOrdersEmpty(t *testing.T) {
	var resp orderListResponse
	require.NoError(t, json.Unmarshal([]byte(`{"new_data": {}}`), &resp))
	assert.Empty(t, parseOrders(&resp))
}

func TestOrderStatusLabels(t *testing.T) {
	assert.Equal(t, "All", OrderStatusLabels[OrderTypeAll])
	assert.Equal(t, "Return/Refund", OrderStatusLabels[OrderTypeReturnRefund])
	assert.Len(t, OrderStatusLabels, 7)
}
