package accelerator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/totegamma/coa/internal/domain"
)

const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeInvalidData  = "INVALID_DATA"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONSTRAINT_VIOLATION"
	CodeAborted      = "REQUEST_ABORTED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is the normalized error every endpoint answers with.
type APIError struct {
	Status        int    `json:"status"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`

	cause error
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Object returns a copy carrying only the serialized fields.
func (e *APIError) Object() APIError {
	return APIError{
		Status:        e.Status,
		Code:          e.Code,
		Message:       e.Message,
		CorrelationID: e.CorrelationID,
	}
}

// String returns the JSON form of the error.
func (e *APIError) String() string {
	b, err := json.Marshal(e.Object())
	if err != nil {
		return e.Error()
	}
	return string(b)
}

// WithCorrelationID returns a copy of e tagged with id.
func (e *APIError) WithCorrelationID(id string) *APIError {
	c := *e
	c.CorrelationID = id
	return &c
}

// NewAPIError passes an *APIError found in err's chain through unchanged and
// wraps anything else.
func NewAPIError(err error) *APIError {
	if err == nil {
		return &APIError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "unknown error"}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	status, code := classify(err)
	return &APIError{
		Status:  status,
		Code:    code,
		Message: err.Error(),
		cause:   err,
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, CodeAborted
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22": // data exception: malformed json, date or integer
			return http.StatusBadRequest, CodeInvalidData
		case "23": // integrity constraint violation
			return http.StatusConflict, CodeConflict
		}
	}

	return http.StatusInternalServerError, CodeInternal
}

// ErrorResponse writes err as a normalized error response.
func ErrorResponse(c echo.Context, err error) error {
	apiErr := NewAPIError(err)
	if apiErr.CorrelationID == "" {
		apiErr = apiErr.WithCorrelationID(CorrelationID(c))
	}
	return c.JSON(apiErr.Status, apiErr.Object())
}
