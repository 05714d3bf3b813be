package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ecampus-api/internal/service"
	"github.com/noah-isme/ecampus-api/pkg/response"
)

type reportService interface {
	ExamReport(ctx context.Context, studentID string) (*service.ReportFile, error)
	AttendanceExport(ctx context.Context, studentID string) (*service.ReportFile, error)
}

// ReportHandler exposes downloadable student reports.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ExamReport godoc
// @Summary Exam result report
// @Tags Reports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/report.pdf [get]
func (h *ReportHandler) ExamReport(c *gin.Context) {
	h.serve(c, h.reports.ExamReport)
}

// AttendanceExport godoc
// @Summary Attendance history export
// @Tags Reports
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/attendance.csv [get]
func (h *ReportHandler) AttendanceExport(c *gin.Context) {
	h.serve(c, h.reports.AttendanceExport)
}

func (h *ReportHandler) serve(c *gin.Context, build func(context.Context, string) (*service.ReportFile, error)) {
	file, err := build(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
