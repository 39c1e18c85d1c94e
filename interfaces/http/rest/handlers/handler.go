package handlers

import (
	"net/http"

	"storefront-backend/application/dto"
	"storefront-backend/application/listcache"
	"storefront-backend/pkg/auth"
	"storefront-backend/pkg/common"
	"storefront-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// result wraps a single value the way every read endpoint returns it
type result struct {
	Result interface{} `json:"result"`
}

// listResponse reports the matched count while searching and the list
// length otherwise
func listResponse[T dto.Record](page listcache.Page[T], q common.ListQuery) common.ListResponse {
	values := page.Values
	if values == nil {
		values = []T{}
	}
	return common.ListResponse{Result: values, TotalCount: countFor(page.TotalCount, page.MatchedCount, q)}
}

func countFor(total int, matched *int, q common.ListQuery) int {
	if q.Search != "" && matched != nil {
		return *matched
	}
	return total
}

// caller returns the authenticated user. Routes using it sit behind
// Authenticate, so a miss is a wiring fault reported as 401.
func caller(r *http.Request) (*auth.UserContext, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return nil, errors.NewUnauthorizedError("Please login first")
	}
	return user, nil
}

func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if id == "" {
		return "", errors.NewValidationError(name + " is required")
	}
	return id, nil
}
