package shopify

import (
	"fmt"
	"strings"
)

// APIError is a transport or protocol level failure: a non-200 status or a
// GraphQL errors payload.
type APIError struct {
	StatusCode    int
	Body          string
	GraphQLErrors []string
}

func (e *APIError) Error() string {
	if len(e.GraphQLErrors) > 0 {
		return fmt.Sprintf("shopify graphql errors: %s", strings.Join(e.GraphQLErrors, "; "))
	}
	return fmt.Sprintf("shopify api error: status %d: %s", e.StatusCode, e.Body)
}

// UserError is a single user-facing validation error from a mutation
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrorsError wraps the userErrors list of a failed mutation. The
// mutation itself completed at the protocol level; the input was rejected.
type UserErrorsError struct {
	Action string
	Errors []UserError
}

func (e *UserErrorsError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		field := strings.Join(ue.Field, ".")
		if field == "" {
			parts = append(parts, ue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, ue.Message))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("shopify %s failed with user errors", e.Action)
	}
	return fmt.Sprintf("shopify %s failed: %s", e.Action, strings.Join(parts, "; "))
}
