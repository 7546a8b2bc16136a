// Package accelerator executes fixed SQL statements on behalf of HTTP
// handlers. It binds positional parameters, maps result columns to API field
// names, writes the response and normalizes errors.
package accelerator

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("accelerator")

var ErrNilRequest = errors.New("accelerator: request is nil")

// Runner executes SQL against the database.
type Runner interface {
	Query(ctx context.Context, sql string, params []any) (*Result, error)
	Exec(ctx context.Context, sql string, params []any) (*Result, error)
}

type Executor struct {
	c             echo.Context
	mapping       Mapping
	template      Template
	sql           string
	runner        Runner
	correlationID string
}

// New binds a request to a statement. A nil template selects TemplateList
// for queries and TemplateAck for other statements.
func New(c echo.Context, mapping Mapping, template Template, sql string, runner Runner) (*Executor, error) {
	if c == nil || c.Request() == nil {
		return nil, ErrNilRequest
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("accelerator: empty sql statement")
	}
	if runner == nil {
		return nil, errors.New("accelerator: runner is nil")
	}

	if template == nil {
		if isQuery(sql) {
			template = TemplateList
		} else {
			template = TemplateAck
		}
	}

	return &Executor{
		c:             c,
		mapping:       mapping,
		template:      template,
		sql:           sql,
		runner:        runner,
		correlationID: CorrelationID(c),
	}, nil
}

func (e *Executor) CorrelationID() string {
	return e.correlationID
}

// ExecuteQuery runs the statement with params and writes the response.
// Failures are returned as *APIError and nothing is written.
func (e *Executor) ExecuteQuery(params []any) error {
	ctx, span := tracer.Start(e.c.Request().Context(), "Accelerator.ExecuteQuery")
	defer span.End()
	span.SetAttributes(
		attribute.String("correlation_id", e.correlationID),
		attribute.Int("params", len(params)),
	)

	var (
		res *Result
		err error
	)
	if isQuery(e.sql) {
		res, err = e.runner.Query(ctx, e.sql, params)
	} else {
		res, err = e.runner.Exec(ctx, e.sql, params)
	}
	if err != nil {
		span.RecordError(err)
		return NewAPIError(err).WithCorrelationID(e.correlationID)
	}

	rows := e.mapping.Apply(res)
	span.SetAttributes(attribute.Int("rows", len(rows)))

	err = e.template.Render(e.c, res, rows)
	if err != nil {
		span.RecordError(err)
		return NewAPIError(err).WithCorrelationID(e.correlationID)
	}
	return nil
}

func isQuery(sql string) bool {
	head := strings.ToUpper(strings.TrimSpace(sql))
	return strings.HasPrefix(head, "SELECT") || strings.HasPrefix(head, "WITH")
}
