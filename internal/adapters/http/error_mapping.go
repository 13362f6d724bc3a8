package httpadapter

import (
	"net/http"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrItemNotFound),
		domain.IsKind(err, domain.ErrBusinessNotFound),
		domain.IsKind(err, domain.ErrPermitNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
