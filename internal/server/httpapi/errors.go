package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/storefront/internal/common"
)

// errorBody is the CMS error envelope:
// {"data":null,"error":{"status":400,"name":"ValidationError","message":"..."}}
type errorBody struct {
	Data  any         `json:"data"`
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

var errorNames = map[int]string{
	http.StatusBadRequest:            "ValidationError",
	http.StatusUnauthorized:          "UnauthorizedError",
	http.StatusForbidden:             "ForbiddenError",
	http.StatusNotFound:              "NotFoundError",
	http.StatusMethodNotAllowed:      "MethodNotAllowedError",
	http.StatusRequestEntityTooLarge: "PayloadTooLargeError",
	http.StatusInternalServerError:   "ApplicationError",
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrResetCodeInvalid),
		errors.Is(err, common.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorBlocked):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error, status int) string {
	var e *common.Error
	if errors.As(err, &e) {
		return e.Message
	}
	switch status {
	case http.StatusUnauthorized:
		return "Missing or invalid credentials"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusInternalServerError:
		return "Internal Server Error"
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeJSON(w, status, errorBody{Error: errorDetail{
		Status:  status,
		Name:    errorNames[status],
		Message: messageFor(err, status),
	}})
}
