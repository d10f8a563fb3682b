package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/slotwise/caseload-api/internal/models"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
	"github.com/slotwise/caseload-api/pkg/export"
)

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
}

type exportSessionReader interface {
	ListByProvider(ctx context.Context, providerID string) ([]models.ScheduleSession, error)
}

type exportStudentReader interface {
	ListByProvider(ctx context.Context, providerID string) ([]models.Student, error)
}

// ExportService renders a provider's weekly calendar as CSV or PDF.
type ExportService struct {
	sessions exportSessionReader
	students exportStudentReader
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService wires export dependencies.
func NewExportService(sessions exportSessionReader, students exportStudentReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: sessions,
		students: students,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// WeeklySchedule renders the provider's sessions ordered by day and start
// time. Supported formats: "csv" (default) and "pdf".
func (s *ExportService) WeeklySchedule(ctx context.Context, providerID, format string) ([]byte, string, error) {
	sessions, err := s.sessions.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions for export")
	}
	students, err := s.students.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students for export")
	}

	names := make(map[string]string, len(students))
	for _, student := range students {
		names[student.ID] = student.FullName
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].DayOfWeek != sessions[j].DayOfWeek {
			return sessions[i].DayOfWeek < sessions[j].DayOfWeek
		}
		if sessions[i].StartTime != sessions[j].StartTime {
			return sessions[i].StartTime < sessions[j].StartTime
		}
		return sessions[i].ID < sessions[j].ID
	})

	data := export.Dataset{
		Headers: []string{"Day", "Start", "End", "Student", "Service", "Status", "Conflict"},
	}
	for _, session := range sessions {
		conflict := ""
		if session.HasConflict {
			conflict = "yes"
			if session.ConflictReason != nil {
				conflict = *session.ConflictReason
			}
		}
		data.Rows = append(data.Rows, map[string]string{
			"Day":      dayNames[session.DayOfWeek],
			"Start":    session.StartTime,
			"End":      session.EndTime,
			"Student":  names[session.StudentID],
			"Service":  session.ServiceType,
			"Status":   string(session.Status),
			"Conflict": conflict,
		})
	}

	switch format {
	case "", "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(data, "Weekly Schedule")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
