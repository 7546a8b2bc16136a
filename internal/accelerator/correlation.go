package accelerator

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/coa/internal/domain"
	"github.com/totegamma/coa/internal/log"
)

// CorrelationID returns the correlation id of the request carried by c. The
// id is taken from the request context, then from the X-Correlation-ID
// header, and generated otherwise. Once resolved it is stored on the request
// context and echoed on the response header.
func CorrelationID(c echo.Context) string {
	req := c.Request()
	if req == nil {
		return ""
	}

	if cid := log.CorrelationIDFromContext(req.Context()); cid != "" {
		return cid
	}

	cid := req.Header.Get(domain.CorrelationIDHeader)
	if cid == "" {
		cid = uuid.NewString()
	}

	c.SetRequest(req.WithContext(log.ContextWithCorrelationID(req.Context(), cid)))
	c.Response().Header().Set(domain.CorrelationIDHeader, cid)
	return cid
}
