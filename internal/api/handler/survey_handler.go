package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pulseapp/pulse-survey/internal/api/metrics"
	"github.com/pulseapp/pulse-survey/internal/core/domain"
	"github.com/pulseapp/pulse-survey/internal/core/ports"
)

const (
	exportJSONFilename = "surveys.json"
	exportCSVFilename  = "surveys.csv"
)

type SurveyHandler struct {
	service ports.SurveyService
	audit   ports.AuditSink
}

func NewSurveyHandler(service ports.SurveyService, audit ports.AuditSink) *SurveyHandler {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &SurveyHandler{service: service, audit: audit}
}

// Submit stores a response owned by the caller.
//
// @Summary      Submit a survey response
// @Tags         surveys
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submitSurveyRequest  true  "Response text (1-500 characters)"
// @Success      201   {object}  domain.Survey
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /surveys [post]
func (h *SurveyHandler) Submit(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req submitSurveyRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	survey, err := h.service.Submit(c.Request().Context(), id.UserID, req.Response)
	if err != nil {
		return err
	}

	metrics.SurveysSubmittedTotal.Inc()
	return c.JSON(http.StatusCreated, survey)
}

// ListOwn returns the caller's responses, newest first.
//
// @Summary      List my survey responses
// @Tags         surveys
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Survey
// @Failure      401  {object}  ErrorResponse
// @Router       /surveys [get]
func (h *SurveyHandler) ListOwn(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	surveys, err := h.service.ListOwn(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveys)
}

// ListAll returns every response, newest first.
//
// @Summary      List all survey responses
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Survey
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /surveys/all [get]
func (h *SurveyHandler) ListAll(c echo.Context) error {
	surveys, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveys)
}

// ExportJSON downloads every response as a JSON array.
//
// @Summary      Export surveys as JSON
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Survey
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /surveys/export/json [get]
func (h *SurveyHandler) ExportJSON(c echo.Context) error {
	body, err := h.service.ExportJSON(c.Request().Context())
	if err != nil {
		return err
	}
	return h.attachment(c, "json", exportJSONFilename, echo.MIMEApplicationJSONCharsetUTF8, body)
}

// ExportCSV downloads every response as CSV. The body is empty when there
// are no responses.
//
// @Summary      Export surveys as CSV
// @Tags         admin
// @Produce      text/csv
// @Security     BearerAuth
// @Success      200  {string}  string  "Survey ID,User ID,Response,Submission Date"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /surveys/export/csv [get]
func (h *SurveyHandler) ExportCSV(c echo.Context) error {
	body, err := h.service.ExportCSV(c.Request().Context())
	if err != nil {
		return err
	}
	return h.attachment(c, "csv", exportCSVFilename, "text/csv; charset=utf-8", body)
}

func (h *SurveyHandler) attachment(c echo.Context, format, filename, contentType string, body []byte) error {
	metrics.SurveysExportedTotal.WithLabelValues(format).Inc()
	if id, err := ctxIdentity(c); err == nil {
		h.audit.Enqueue(domain.AuditEvent{
			Action:     domain.AuditSurveysExported,
			Actor:      id.UserID,
			Subject:    format,
			OccurredAt: time.Now().UTC(),
		})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, body)
}
