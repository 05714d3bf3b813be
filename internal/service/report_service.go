package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ecampus-api/internal/models"
	appErrors "github.com/noah-isme/ecampus-api/pkg/errors"
	"github.com/noah-isme/ecampus-api/pkg/export"
)

type reportStudentSource interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type reportResultSource interface {
	ListResults(ctx context.Context, studentID string) ([]models.ExamResult, error)
}

type reportAttendanceSource interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportFile is a rendered download.
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ReportService renders per-student documents: an exam result PDF and an
// attendance CSV.
type ReportService struct {
	students   reportStudentSource
	results    reportResultSource
	attendance reportAttendanceSource
	pdf        datasetRenderer
	csv        datasetRenderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService constructs the report service.
func NewReportService(students reportStudentSource, results reportResultSource, attendance reportAttendanceSource, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		students:   students,
		results:    results,
		attendance: attendance,
		pdf:        export.NewPDFExporter(),
		csv:        export.NewCSVExporter(),
		logger:     logger,
		now:        time.Now,
	}
}

// ExamReport renders the exam results of a student as PDF.
func (s *ReportService) ExamReport(ctx context.Context, studentID string) (*ReportFile, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListResults(ctx, studentID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load exam results")
	}

	var obtained, maximum float64
	rows := make([]map[string]string, 0, len(results))
	for _, result := range results {
		obtained += result.Marks
		maximum += result.MaxMarks
		rows = append(rows, map[string]string{
			"Subject":   result.Subject,
			"Marks":     formatMarks(result.Marks),
			"Max Marks": formatMarks(result.MaxMarks),
			"Grade":     deref(result.Grade),
		})
	}
	details := [][2]string{
		{"Student", student.Name},
		{"Registration No", student.RegistrationNo},
		{"Generated", s.now().UTC().Format(dateLayout)},
	}
	if maximum > 0 {
		details = append(details, [2]string{"Total", fmt.Sprintf("%s / %s (%.1f%%)", formatMarks(obtained), formatMarks(maximum), obtained/maximum*100)})
	}

	content, err := s.pdf.Render(export.Dataset{
		Title:   "Exam Report",
		Details: details,
		Headers: []string{"Subject", "Marks", "Max Marks", "Grade"},
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render exam report")
	}
	return &ReportFile{
		Filename:    reportFilename(student, "exam-report", "pdf"),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// AttendanceExport renders the attendance of a student as CSV.
func (s *ReportService) AttendanceExport(ctx context.Context, studentID string) (*ReportFile, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	records, err := s.attendance.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load attendance")
	}

	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Date":   record.Date.UTC().Format(dateLayout),
			"Status": string(record.Status),
		})
	}
	content, err := s.csv.Render(export.Dataset{Headers: []string{"Date", "Status"}, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance export")
	}
	return &ReportFile{
		Filename:    reportFilename(student, "attendance", "csv"),
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

func (s *ReportService) student(ctx context.Context, id string) (*models.Student, error) {
	if err := checkID(id, "student"); err != nil {
		return nil, err
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Storage(err, "failed to load student")
	}
	return student, nil
}

func formatMarks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func reportFilename(student *models.Student, kind, ext string) string {
	return fmt.Sprintf("%s-%s.%s", kind, strings.ToLower(student.RegistrationNo), ext)
}
