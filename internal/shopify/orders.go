package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog-sync-service/internal/util"
)

// Order is an order from the REST orders feed, reduced to the fields the
// sales aggregation needs.
type Order struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	LineItems []LineItem `json:"line_items"`
}

// LineItem references a variant by its bare numeric id
type LineItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// FetchOrders returns every order created at or after createdAtMin,
// following Link-header pagination until the feed is exhausted.
func (c *Client) FetchOrders(ctx context.Context, createdAtMin time.Time) ([]Order, error) {
	start := time.Now()
	defer func() {
		util.OrdersFetchLatency.Observe(time.Since(start).Seconds())
	}()

	next := fmt.Sprintf("%s/admin/api/%s/orders.json?status=any&limit=%d&created_at_min=%s",
		c.baseURL, c.apiVersion, pageSize,
		url.QueryEscape(createdAtMin.UTC().Format(time.RFC3339)))

	var all []Order
	for page := 1; next != ""; page++ {
		if page > maxPages {
			return nil, fmt.Errorf("order pagination did not terminate after %d pages", maxPages)
		}

		orders, nextURL, err := c.fetchOrdersPage(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch orders page %d: %w", page, err)
		}

		all = append(all, orders...)
		next = nextURL
	}

	return all, nil
}

func (c *Client) fetchOrdersPage(ctx context.Context, pageURL string) ([]Order, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("orders request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var payload struct {
		Orders []Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("failed to decode orders response: %w", err)
	}

	return payload.Orders, nextPageURL(resp.Header.Get("Link")), nil
}

// nextPageURL extracts the rel="next" URL from a Link header, or "" when the
// current page is the last one.
func nextPageURL(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, seg := range segments[1:] {
			if strings.TrimSpace(seg) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}
