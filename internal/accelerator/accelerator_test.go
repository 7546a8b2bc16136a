package accelerator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/totegamma/coa/internal/domain"
	"github.com/totegamma/coa/internal/log"
)

// --- mocks ---

type mockRunner struct {
	result *Result
	err    error

	queried  bool
	executed bool
	sql      string
	params   []any
}

func (m *mockRunner) Query(ctx context.Context, sql string, params []any) (*Result, error) {
	m.queried = true
	m.sql = sql
	m.params = params
	return m.result, m.err
}

func (m *mockRunner) Exec(ctx context.Context, sql string, params []any) (*Result, error) {
	m.executed = true
	m.sql = sql
	m.params = params
	return m.result, m.err
}

func newContext(method string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var testMapping = Mapping{
	{Name: "id", Column: "id"},
	{Name: "saveDate", Column: "save_date", Kind: KindDate},
	{Name: "doc", Column: "document", Kind: KindJSON},
}

// --- tests ---

func TestNewRejectsNilRequest(t *testing.T) {
	_, err := New(nil, testMapping, nil, "SELECT 1", &mockRunner{})
	assert.ErrorIs(t, err, ErrNilRequest)
}

func TestNewRejectsEmptySQL(t *testing.T) {
	c, _ := newContext(http.MethodGet)
	_, err := New(c, testMapping, nil, "   ", &mockRunner{})
	assert.Error(t, err)
}

func TestExecuteQueryListMapsColumns(t *testing.T) {
	c, rec := newContext(http.MethodGet)
	runner := &mockRunner{result: &Result{
		Columns: []string{"document", "id", "save_date", "ignored"},
		Rows: [][]any{
			{[]byte(`{"a":1}`), int64(2), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "x"},
			{`[1,2]`, int64(1), time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), "y"},
		},
	}}

	ex, err := New(c, testMapping, nil, "SELECT * FROM t", runner)
	require.NoError(t, err)
	require.NoError(t, ex.ExecuteQuery(nil))

	assert.True(t, runner.queried)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`[{"id":2,"saveDate":"2024-01-01","doc":{"a":1}},{"id":1,"saveDate":"2023-12-31","doc":[1,2]}]`,
		rec.Body.String(),
	)
	// keys follow mapping order
	assert.Equal(t,
		`[{"id":2,"saveDate":"2024-01-01","doc":{"a":1}},{"id":1,"saveDate":"2023-12-31","doc":[1,2]}]`+"\n",
		rec.Body.String(),
	)
}

func TestExecuteQueryEmptyListIsArray(t *testing.T) {
	c, rec := newContext(http.MethodGet)
	runner := &mockRunner{result: &Result{Columns: []string{"id"}}}

	ex, err := New(c, testMapping, nil, "select id from t", runner)
	require.NoError(t, err)
	require.NoError(t, ex.ExecuteQuery(nil))

	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestExecuteQueryEmptyMappingPassesColumns(t *testing.T) {
	c, rec := newContext(http.MethodGet)
	runner := &mockRunner{result: &Result{
		Columns: []string{"b", "a"},
		Rows:    [][]any{{[]byte("text"), nil}},
	}}

	ex, err := New(c, Mapping{}, nil, "SELECT b, a FROM t", runner)
	require.NoError(t, err)
	require.NoError(t, ex.ExecuteQuery(nil))

	assert.Equal(t, `[{"b":"text","a":null}]`+"\n", rec.Body.String())
}

func TestExecuteQuerySingle(t *testing.T) {
	c, rec := newContext(http.MethodGet)
	runner := &mockRunner{result: &Result{
		Columns: []string{"id"},
		Rows:    [][]any{{int64(7)}},
	}}

	ex, err := New(c, testMapping, TemplateSingle, "SELECT * FROM t WHERE id = ?::int", runner)
	require.NoError(t, err)
	require.NoError(t, ex.ExecuteQuery([]any{7}))

	assert.Equal(t, []any{7}, runner.params)
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}

func TestExecuteQuerySingleNotFound(t *testing.T) {
	c, rec := newContext(http.MethodGet)
	runner := &mockRunner{result: &Result{Columns: []string{"id"}}}

	ex, err := New(c, testMapping, TemplateSingle, "SELECT * FROM t WHERE id = ?::int", runner)
	require.NoError(t, err)

	err = ex.ExecuteQuery([]any{42})
	require.Error(t, err)

	apiErr := NewAPIError(err)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, CodeNotFound, apiErr.Code)
	assert.Equal(t, ex.CorrelationID(), apiErr.CorrelationID)
	assert.Zero(t, rec.Body.Len())
}

func TestExecuteQueryInsertAcknowledges(t *testing.T) {
	c, rec := newContext(http.MethodPost)
	runner := &mockRunner{result: &Result{RowsAffected: 1}}

	ex, err := New(c, Mapping{}, nil, "INSERT INTO t (a) VALUES (?)", runner)
	require.NoError(t, err)
	require.NoError(t, ex.ExecuteQuery([]any{"a"}))

	assert.True(t, runner.executed)
	assert.False(t, runner.queried)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"created","rowCount":1}`, rec.Body.String())
}

func TestExecuteQueryRunnerErrorIsNormalized(t *testing.T) {
	c, rec := newContext(http.MethodPost)
	runner := &mockRunner{err: &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type json"}}

	ex, err := New(c, Mapping{}, nil, "INSERT INTO t (a) VALUES (?::json)", runner)
	require.NoError(t, err)

	err = ex.ExecuteQuery([]any{"{"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, CodeInvalidData, apiErr.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestCorrelationIDFromHeader(t *testing.T) {
	c, rec := newContext(http.MethodGet)
	c.Request().Header.Set(domain.CorrelationIDHeader, "cid-from-header")

	ex, err := New(c, nil, nil, "SELECT 1", &mockRunner{})
	require.NoError(t, err)

	assert.Equal(t, "cid-from-header", ex.CorrelationID())
	assert.Equal(t, "cid-from-header", rec.Header().Get(domain.CorrelationIDHeader))
	assert.Equal(t, "cid-from-header", log.CorrelationIDFromContext(c.Request().Context()))
}

func TestCorrelationIDGeneratedOnce(t *testing.T) {
	c, _ := newContext(http.MethodGet)

	first := CorrelationID(c)
	second := CorrelationID(c)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestNewAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid input", domain.InvalidInputError{Field: "id", Reason: "not an integer"}, http.StatusBadRequest, CodeInvalidInput},
		{"not found", domain.NotFoundError{Resource: "certificate"}, http.StatusNotFound, CodeNotFound},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, CodeNotFound},
		{"duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), http.StatusConflict, CodeConflict},
		{"pg integrity", &pgconn.PgError{Code: "23502"}, http.StatusConflict, CodeConflict},
		{"pg bad date", &pgconn.PgError{Code: "22007"}, http.StatusBadRequest, CodeInvalidData},
		{"pg undefined table", &pgconn.PgError{Code: "42P01"}, http.StatusInternalServerError, CodeInternal},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, CodeAborted},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := NewAPIError(tt.err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.ErrorIs(t, apiErr, tt.err)
		})
	}
}

func TestNewAPIErrorPassesThrough(t *testing.T) {
	orig := &APIError{Status: http.StatusTeapot, Code: "TEAPOT", Message: "short and stout"}
	wrapped := fmt.Errorf("layer: %w", orig)

	assert.Same(t, orig, NewAPIError(orig))
	assert.Same(t, orig, NewAPIError(wrapped))
}

func TestErrorResponseShapeIsUniform(t *testing.T) {
	structured := &APIError{Status: http.StatusBadRequest, Code: CodeInvalidInput, Message: "bad id"}
	plain := fmt.Errorf("connection refused")

	keys := func(err error) []string {
		c, rec := newContext(http.MethodGet)
		c.Request().Header.Set(domain.CorrelationIDHeader, "cid-1")
		require.NoError(t, ErrorResponse(c, err))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "cid-1", body["correlationId"])

		out := []string{}
		for k := range body {
			out = append(out, k)
		}
		return out
	}

	assert.ElementsMatch(t, keys(structured), keys(plain))
	assert.Empty(t, structured.CorrelationID, "ErrorResponse must not mutate the passed error")
}

func TestAPIErrorString(t *testing.T) {
	apiErr := &APIError{Status: 500, Code: CodeInternal, Message: "boom", CorrelationID: "c"}
	assert.JSONEq(t, `{"status":500,"code":"INTERNAL_ERROR","message":"boom","correlationId":"c"}`, apiErr.String())
	assert.Equal(t, "INTERNAL_ERROR: boom", apiErr.Error())
}
