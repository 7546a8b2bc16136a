package presenter

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/coa/internal/log"
)

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Status answers {"status": status}.
func Status(c echo.Context, status string) error {
	return c.JSON(http.StatusOK, statusResponse{Status: status})
}

func Unavailable(c echo.Context, err error) error {
	logger := log.WithComponent("presenter")
	logger.Warn().Err(err).Msg("service unavailable")
	return c.JSON(http.StatusServiceUnavailable, statusResponse{Status: "unavailable", Error: err.Error()})
}
