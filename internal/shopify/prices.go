package shopify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const updatePriceMutation = `
mutation UpdateVariantPrice($input: ProductVariantInput!) {
  productVariantUpdate(input: $input) {
    productVariant {
      id
      price
    }
    userErrors {
      field
      message
    }
  }
}`

type priceUpdateResponse struct {
	Data *struct {
		ProductVariantUpdate struct {
			ProductVariant *struct {
				ID    string `json:"id"`
				Price string `json:"price"`
			} `json:"productVariant"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"productVariantUpdate"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// UpdateVariantPrice issues the productVariantUpdate mutation for one
// variant. The price is sent as a two-decimal string, matching the remote
// representation. Validation rejections come back as *UserErrorsError.
func (c *Client) UpdateVariantPrice(ctx context.Context, variantGID string, price decimal.Decimal) error {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"id":    variantGID,
			"price": price.StringFixed(2),
		},
	}

	var resp priceUpdateResponse
	if err := c.graphql(ctx, updatePriceMutation, variables, &resp); err != nil {
		return fmt.Errorf("productVariantUpdate %s: %w", variantGID, err)
	}

	if len(resp.Errors) > 0 || resp.Data == nil {
		return fmt.Errorf("productVariantUpdate %s: %w", variantGID, &APIError{GraphQLErrors: errorMessages(resp.Errors)})
	}

	if errs := resp.Data.ProductVariantUpdate.UserErrors; len(errs) > 0 {
		return &UserErrorsError{Action: "productVariantUpdate", Errors: errs}
	}

	return nil
}
