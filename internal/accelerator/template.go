package accelerator

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/coa/internal/domain"
)

// Template shapes mapped rows into the HTTP response.
type Template interface {
	Render(c echo.Context, res *Result, rows []Row) error
}

type TemplateFunc func(c echo.Context, res *Result, rows []Row) error

func (f TemplateFunc) Render(c echo.Context, res *Result, rows []Row) error {
	return f(c, res, rows)
}

var (
	// TemplateList answers with every row as a JSON array.
	TemplateList Template = TemplateFunc(renderList)
	// TemplateSingle answers with the first row as a JSON object, or 404.
	TemplateSingle Template = TemplateFunc(renderSingle)
	// TemplateAck acknowledges a write with the number of affected rows.
	TemplateAck Template = TemplateFunc(renderAck)
)

// Ack is the body written by TemplateAck.
type Ack struct {
	Status   string `json:"status"`
	RowCount int64  `json:"rowCount"`
}

func renderList(c echo.Context, _ *Result, rows []Row) error {
	return c.JSON(http.StatusOK, rows)
}

func renderSingle(c echo.Context, _ *Result, rows []Row) error {
	if len(rows) == 0 {
		return NewAPIError(domain.NotFoundError{Resource: "record"})
	}
	return c.JSON(http.StatusOK, rows[0])
}

func renderAck(c echo.Context, res *Result, _ []Row) error {
	var n int64
	if res != nil {
		n = res.RowsAffected
	}
	return c.JSON(http.StatusCreated, Ack{Status: "created", RowCount: n})
}
