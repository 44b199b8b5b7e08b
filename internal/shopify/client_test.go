package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	c := NewClient("test-shop.myshopify.com", "test-token", "2024-01")
	c.baseURL = serverURL
	return c
}

func productPage(nodes []map[string]interface{}, hasNext bool, cursor string) map[string]interface{} {
	edges := make([]map[string]interface{}, 0, len(nodes))
	for _, n := range nodes {
		edges = append(edges, map[string]interface{}{"node": n})
	}
	return map[string]interface{}{
		"data": map[string]interface{}{
			"products": map[string]interface{}{
				"edges": edges,
				"pageInfo": map[string]interface{}{
					"hasNextPage": hasNext,
					"endCursor":   cursor,
				},
			},
		},
	}
}

func productNode(id, title string) map[string]interface{} {
	return map[string]interface{}{
		"id":     id,
		"title":  title,
		"vendor": "Acme",
		"status": "ACTIVE",
		"variants": map[string]interface{}{
			"edges": []map[string]interface{}{
				{"node": map[string]interface{}{
					"id":                fmt.Sprintf("gid://shopify/ProductVariant/%s-v1", id),
					"sku":               "SKU-" + title,
					"price":             "19.99",
					"inventoryQuantity": 12,
				}},
			},
		},
	}
}

func TestFetchAllProductsPagination(t *testing.T) {
	calls := 0
	pages := []map[string]interface{}{
		productPage([]map[string]interface{}{productNode("gid://shopify/Product/1", "One")}, true, "c1"),
		productPage([]map[string]interface{}{productNode("gid://shopify/Product/2", "Two")}, true, "c2"),
		productPage([]map[string]interface{}{productNode("gid://shopify/Product/3", "Three")}, false, ""),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/graphql.json", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Shopify-Access-Token"))

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch calls {
		case 0:
			assert.Nil(t, req.Variables["cursor"])
		case 1:
			assert.Equal(t, "c1", req.Variables["cursor"])
		case 2:
			assert.Equal(t, "c2", req.Variables["cursor"])
		}

		require.Less(t, calls, len(pages), "fetched past the last page")
		_ = json.NewEncoder(w).Encode(pages[calls])
		calls++
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	products, err := c.FetchAllProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, calls, "one fetch per page")
	require.Len(t, products, 3)
	assert.Equal(t, "gid://shopify/Product/1", products[0].ID)
	assert.Equal(t, "gid://shopify/Product/3", products[2].ID)
	require.Len(t, products[0].Variants.Edges, 1)
	assert.Equal(t, "19.99", products[0].Variants.Edges[0].Node.Price)
	require.NotNil(t, products[0].Variants.Edges[0].Node.InventoryQuantity)
	assert.EqualValues(t, 12, *products[0].Variants.Edges[0].Node.InventoryQuantity)
}

func TestFetchAllProductsGraphQLErrorIsNotEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]interface{}{{"message": "Throttled"}},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	products, err := c.FetchAllProducts(context.Background())

	require.Error(t, err)
	assert.Nil(t, products)
	assert.Contains(t, err.Error(), "Throttled")
}

func TestFetchAllProductsMidPaginationFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(productPage(
				[]map[string]interface{}{productNode("gid://shopify/Product/1", "One")}, true, "c1"))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	products, err := c.FetchAllProducts(context.Background())

	require.Error(t, err)
	assert.Nil(t, products, "partial results must be discarded")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestUpdateVariantPriceSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		input := req.Variables["input"].(map[string]interface{})
		assert.Equal(t, "gid://shopify/ProductVariant/7", input["id"])
		assert.Equal(t, "110.00", input["price"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"productVariantUpdate": map[string]interface{}{
					"productVariant": map[string]interface{}{
						"id":    input["id"],
						"price": input["price"],
					},
					"userErrors": []interface{}{},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.UpdateVariantPrice(context.Background(), "gid://shopify/ProductVariant/7", decimal.RequireFromString("110"))
	assert.NoError(t, err)
}

func TestUpdateVariantPriceUserErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"productVariantUpdate": map[string]interface{}{
					"productVariant": nil,
					"userErrors": []map[string]interface{}{
						{"field": []string{"price"}, "message": "Price must be positive"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.UpdateVariantPrice(context.Background(), "gid://shopify/ProductVariant/7", decimal.RequireFromString("-1"))

	var userErrs *UserErrorsError
	require.ErrorAs(t, err, &userErrs)
	assert.Contains(t, userErrs.Error(), "Price must be positive")
}

func TestNumericID(t *testing.T) {
	n, ok := NumericID("gid://shopify/ProductVariant/123456")
	assert.True(t, ok)
	assert.EqualValues(t, 123456, n)

	n, ok = NumericID("9001")
	assert.True(t, ok)
	assert.EqualValues(t, 9001, n)

	_, ok = NumericID("gid://shopify/ProductVariant/not-a-number")
	assert.False(t, ok)
}
