package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog-sync-service/internal/util"

	"go.uber.org/zap"
)

const (
	pageSize = 250

	// maxPages bounds pagination so a remote that keeps signalling a next
	// page cannot spin the fetch forever. 1000 pages covers 250k products.
	maxPages = 1000
)

const productsQuery = `
query($cursor: String) {
  products(first: 250, after: $cursor) {
    edges {
      node {
        id
        title
        vendor
        status
        variants(first: 250) {
          edges {
            node {
              id
              sku
              price
              inventoryQuantity
            }
          }
        }
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

// Client talks to the Shopify Admin GraphQL and REST APIs. It is constructed
// once at startup and passed into every component that needs it.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	apiVersion  string
	logger      *zap.Logger
}

// NewClient creates a Shopify Admin API client for the given shop
func NewClient(shopDomain, accessToken, apiVersion string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     "https://" + shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		logger:      util.GetLogger(),
	}
}

// PageInfo is the GraphQL connection page marker
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// VariantNode is a variant as returned by the products query. Price is the
// remote decimal-as-string representation; InventoryQuantity may be absent.
type VariantNode struct {
	ID                string `json:"id"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity *int64 `json:"inventoryQuantity"`
}

// ProductNode is a product as returned by the products query
type ProductNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Vendor   string `json:"vendor"`
	Status   string `json:"status"`
	Variants struct {
		Edges []struct {
			Node VariantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type productsResponse struct {
	Data *struct {
		Products struct {
			Edges []struct {
				Node ProductNode `json:"node"`
			} `json:"edges"`
			PageInfo PageInfo `json:"pageInfo"`
		} `json:"products"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchAllProducts pages through the product query until the remote reports
// no further pages and returns every node. Any transport, protocol or
// GraphQL-level failure returns an error and no partial result, so callers
// can always tell a failed fetch apart from a genuinely empty catalog.
func (c *Client) FetchAllProducts(ctx context.Context) ([]ProductNode, error) {
	start := time.Now()
	defer func() {
		util.CatalogFetchLatency.Observe(time.Since(start).Seconds())
	}()

	var all []ProductNode
	cursor := ""

	for page := 1; page <= maxPages; page++ {
		variables := map[string]interface{}{"cursor": nil}
		if cursor != "" {
			variables["cursor"] = cursor
		}

		var resp productsResponse
		if err := c.graphql(ctx, productsQuery, variables, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch products page %d: %w", page, err)
		}

		if len(resp.Errors) > 0 || resp.Data == nil {
			return nil, fmt.Errorf("products page %d: %w", page, &APIError{GraphQLErrors: errorMessages(resp.Errors)})
		}

		for _, edge := range resp.Data.Products.Edges {
			all = append(all, edge.Node)
		}

		info := resp.Data.Products.PageInfo
		c.logger.Debug("Fetched product page",
			zap.Int("page", page),
			zap.Int("nodes", len(resp.Data.Products.Edges)),
			zap.Bool("has_next", info.HasNextPage))

		if !info.HasNextPage {
			return all, nil
		}
		cursor = info.EndCursor
	}

	return nil, fmt.Errorf("product pagination did not terminate after %d pages", maxPages)
}

// graphql posts a query to the Admin GraphQL endpoint and decodes the
// response envelope into out
func (c *Client) graphql(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal graphql request: %w", err)
	}

	url := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode graphql response: %w", err)
	}
	return nil
}

func errorMessages(errs []graphQLError) []string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// NumericID extracts the trailing numeric id from a Shopify GID such as
// gid://shopify/ProductVariant/42. Order line items reference variants by
// that bare number.
func NumericID(gid string) (int64, bool) {
	s := gid
	if idx := strings.LastIndex(gid, "/"); idx >= 0 {
		s = gid[idx+1:]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
