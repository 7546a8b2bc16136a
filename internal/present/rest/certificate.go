package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/totegamma/coa/internal/accelerator"
	"github.com/totegamma/coa/internal/domain"
	"github.com/totegamma/coa/internal/log"
	"github.com/totegamma/coa/internal/metrics"
	"github.com/totegamma/coa/internal/service"
)

// logSource is the controller name carried in the elapsed time log line.
// Log dashboards match on it, so it must not change.
const logSource = "certificate-controller.js"

var fullCertificateMapping = accelerator.Mapping{
	{Name: "id", Column: "id"},
	{Name: "saveDate", Column: "save_date", Kind: accelerator.KindDate},
	{Name: "user", Column: "user_ldap"},
	{Name: "certificateAsJson", Column: "certificate", Kind: accelerator.KindJSON},
	{Name: "certificateAsJsonBinary", Column: "certificateb", Kind: accelerator.KindJSON},
}

var certificateHeaderMapping = accelerator.Mapping{
	{Name: "id", Column: "id"},
	{Name: "saveDate", Column: "save_date", Kind: accelerator.KindDate},
	{Name: "user", Column: "user_ldap"},
	{Name: "batchNumber", Column: "batch_number"},
	{Name: "site", Column: "site"},
	{Name: "materialNumber", Column: "material_number"},
	{Name: "countries", Column: "country_list"},
}

// A certificate without markets is expanded to a single blank market so the
// aggregation still yields its row.
const sqlGetHeaders = `SELECT * FROM (SELECT
    id,
    save_date,
    user_ldap,
    batch_number,
    site,
    material_number,
    string_agg(country, ', ') as country_list
FROM (SELECT
    id,
    save_date,
    user_ldap,
    certificate -> 'batches' -> 0 ->> 'number' as batch_number,
    certificate -> 'batches' -> 0 -> 'productionSite' ->> 'name' as site,
    certificate -> 'batches' -> 0 -> 'material' ->> 'reference' as material_number,
    json_array_elements(case when (certificate -> 'markets')::text = '[]' then '[{"name":""}]'::json else (certificate -> 'markets') end) ->> 'name' as country
FROM coa.coa_certificates) f GROUP BY id, save_date, user_ldap, batch_number, site, material_number) f ORDER BY id DESC`

const sqlInsertCertificate = `INSERT INTO coa.coa_certificates
        (save_date, user_ldap, certificate, certificateb)
        VALUES (?::date, ?::text, ?::json, ?::jsonb)`

const sqlGetCertificate = `SELECT * FROM coa.coa_certificates WHERE id = ?::int`

type CertificateController struct {
	runner  accelerator.Runner
	signal  *service.SignalService
	metrics *metrics.Controller
	logger  zerolog.Logger
}

// NewCertificateController builds the controller. signal and m may be nil.
func NewCertificateController(
	runner accelerator.Runner,
	signal *service.SignalService,
	m *metrics.Controller,
	logger zerolog.Logger,
) *CertificateController {
	return &CertificateController{
		runner:  runner,
		signal:  signal,
		metrics: m,
		logger:  logger,
	}
}

func (h *CertificateController) SelectCertificate(c echo.Context) error {
	return h.call(c, "selectCertificate", func(c echo.Context) (string, error) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 32)
		if err != nil {
			return "", domain.InvalidInputError{Field: "id", Reason: "must be an integer"}
		}

		oa, err := accelerator.New(c, fullCertificateMapping, accelerator.TemplateSingle, sqlGetCertificate, h.runner)
		if err != nil {
			return "", err
		}
		return oa.CorrelationID(), oa.ExecuteQuery([]any{id})
	})
}

func (h *CertificateController) SelectHeaders(c echo.Context) error {
	return h.call(c, "selectHeaders", func(c echo.Context) (string, error) {
		oa, err := accelerator.New(c, certificateHeaderMapping, accelerator.TemplateList, sqlGetHeaders, h.runner)
		if err != nil {
			return "", err
		}
		return oa.CorrelationID(), oa.ExecuteQuery(nil)
	})
}

func (h *CertificateController) InsertCertificate(c echo.Context) error {
	return h.call(c, "insertCertificate", func(c echo.Context) (string, error) {
		var body domain.InsertCertificateRequest
		err := c.Bind(&body)
		if err != nil {
			return "", domain.InvalidInputError{Field: "body", Reason: err.Error()}
		}

		oa, err := accelerator.New(c, accelerator.Mapping{}, accelerator.TemplateAck, sqlInsertCertificate, h.runner)
		if err != nil {
			return "", err
		}

		// the same document feeds the json and the jsonb column
		doc, err := documentParam(body.CertificateAsJSON)
		if err != nil {
			return oa.CorrelationID(), err
		}
		params := []any{body.SaveDate, body.User, doc, doc}

		err = oa.ExecuteQuery(params)
		if err != nil {
			return oa.CorrelationID(), err
		}

		h.publishInserted(c, body, oa.CorrelationID())
		return oa.CorrelationID(), nil
	})
}

// call times op, logs the elapsed time on success and turns any failure
// into the normalized error response.
func (h *CertificateController) call(c echo.Context, method string, op func(echo.Context) (string, error)) error {
	if c == nil || c.Request() == nil {
		return accelerator.ErrNilRequest
	}

	start := time.Now()
	correlationID, err := guard(c, op)
	elapsed := time.Since(start)

	if err != nil {
		h.metrics.Observe(method, metrics.OutcomeError, elapsed)
		l := log.WithContext(c.Request().Context(), h.logger)
		l.Debug().Err(err).Str("method", method).Msg("call failed")
		if c.Response().Committed {
			return err
		}
		return accelerator.ErrorResponse(c, err)
	}

	h.metrics.Observe(method, metrics.OutcomeOK, elapsed)
	seconds := strconv.FormatFloat(elapsed.Seconds(), 'f', 3, 64)
	h.logger.Info().
		Str("correlation_id", correlationID).
		Str("method", method).
		Dur("elapsed", elapsed).
		Msgf("%s | %s %s() Call time elapsed: %s seconds", correlationID, logSource, method, seconds)
	return nil
}

// guard runs op and turns a panic into an error so it is answered like any
// other failure.
func guard(c echo.Context, op func(echo.Context) (string, error)) (correlationID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return op(c)
}

// documentParam converts the submitted document into the value bound to the
// json columns. A JSON string carries the document text itself, null and a
// missing document bind SQL NULL, anything else binds the JSON as sent.
func documentParam(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var text string
		err := json.Unmarshal(trimmed, &text)
		if err != nil {
			return nil, domain.InvalidInputError{Field: "certificateAsJson", Reason: err.Error()}
		}
		return text, nil
	}
	return string(trimmed), nil
}

func (h *CertificateController) publishInserted(c echo.Context, body domain.InsertCertificateRequest, correlationID string) {
	if h.signal == nil {
		return
	}

	event := domain.CertificateEvent{
		Type:          domain.EventCertificateInserted,
		SaveDate:      body.SaveDate,
		User:          body.User,
		CorrelationID: correlationID,
	}
	err := h.signal.Publish(c.Request().Context(), domain.CertificateChannel, event)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("correlation_id", correlationID).
			Msg("failed to publish certificate event")
	}
}
