package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarivaldoDev/sistema-escolar/internal/service"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/response"
)

// ReportHandler exposes report card endpoints.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

func reportYear(c *gin.Context) int {
	return queryInt(c, "year", time.Now().Year())
}

// GetReportCard godoc
// @Summary Get a student's report card for a school year
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param year query int false "School year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/students/{studentId} [get]
func (h *ReportHandler) GetReportCard(c *gin.Context) {
	card, err := h.reports.GetReportCard(c.Request.Context(), actorFromContext(c), c.Param("studentId"), reportYear(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// ExportCSV godoc
// @Summary Export a report card as CSV
// @Tags Reports
// @Produce text/csv
// @Param studentId path string true "Student ID"
// @Param year query int false "School year (defaults to current)"
// @Success 200 {string} string "CSV content"
// @Security BearerAuth
// @Router /reports/students/{studentId}/csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	year := reportYear(c)
	data, err := h.reports.ExportCSV(c.Request.Context(), actorFromContext(c), c.Param("studentId"), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=boletim_%d.csv", year))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Export a report card as PDF
// @Tags Reports
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param year query int false "School year (defaults to current)"
// @Success 200 {string} string "PDF content"
// @Security BearerAuth
// @Router /reports/students/{studentId}/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	year := reportYear(c)
	data, err := h.reports.ExportPDF(c.Request.Context(), actorFromContext(c), c.Param("studentId"), year)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=boletim_%d.pdf", year))
	c.Data(http.StatusOK, "application/pdf", data)
}

// ArchiveExport godoc
// @Summary Archive a report card export and get a shareable signed link
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Param format query string true "csv or pdf"
// @Param year query int false "School year (defaults to current)"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/students/{studentId}/exports [post]
func (h *ReportHandler) ArchiveExport(c *gin.Context) {
	link, err := h.exports.Archive(c.Request.Context(), actorFromContext(c), c.Param("studentId"), reportYear(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// DownloadExport godoc
// @Summary Download an archived export using a signed token
// @Tags Reports
// @Param token query string true "Signed download token"
// @Success 200 {string} string "File content"
// @Router /exports/download [get]
func (h *ReportHandler) DownloadExport(c *gin.Context) {
	reader, contentType, filename, err := h.exports.OpenDownload(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		_ = c.Error(err)
	}
}

// Invalidate godoc
// @Summary Drop a student's cached report cards
// @Tags Reports
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /reports/students/{studentId}/cache [delete]
func (h *ReportHandler) Invalidate(c *gin.Context) {
	studentID := c.Param("studentId")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	if err := h.reports.InvalidateStudent(c.Request.Context(), studentID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
