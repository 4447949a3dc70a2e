package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/MarivaldoDev/sistema-escolar/internal/models"
	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
	"github.com/MarivaldoDev/sistema-escolar/pkg/export"
)

type reportCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type reportTeamRepository interface {
	FindForStudent(ctx context.Context, studentID string, year int) (*models.Team, error)
}

type reportSubjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
}

type reportGradeRepository interface {
	ListFor(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntryDetail, error)
}

type reportAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.Account, error)
}

type reportMetricsRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// ReportConfig governs report-card caching.
type ReportConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReportService assembles report cards from the grade ledger and renders
// them as CSV or PDF. Assembled cards are cached in Redis; any write to the
// student's ledger invalidates the cache.
type ReportService struct {
	cache      reportCacheRepository
	teams      reportTeamRepository
	subjects   reportSubjectRepository
	grades     reportGradeRepository
	accounts   reportAccountRepository
	evaluation *EvaluationService
	metrics    reportMetricsRecorder
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	config     ReportConfig
	logger     *zap.Logger
}

// NewReportService constructs a ReportService instance.
func NewReportService(cache reportCacheRepository, teams reportTeamRepository, subjects reportSubjectRepository, grades reportGradeRepository, accounts reportAccountRepository, evaluation *EvaluationService, metrics reportMetricsRecorder, config ReportConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if evaluation == nil {
		evaluation = NewEvaluationService()
	}
	return &ReportService{
		cache:      cache,
		teams:      teams,
		subjects:   subjects,
		grades:     grades,
		accounts:   accounts,
		evaluation: evaluation,
		metrics:    metrics,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		config:     config,
		logger:     logger,
	}
}

// GetReportCard returns the per-subject averages and approval status of a
// student for a year. Students only ever fetch their own card.
func (s *ReportService) GetReportCard(ctx context.Context, actor models.Actor, studentID string, year int) (*models.ReportCard, error) {
	if !actor.Bypasses() && actor.Role == models.RoleStudent && actor.AccountID != studentID {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "cannot access another account's records")
	}

	key := reportCacheKey(studentID, year)
	if s.cacheActive() {
		start := time.Now()
		var cached models.ReportCard
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return &cached, nil
		}
		var appErr *appErrors.Error
		if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrCacheMiss.Code {
			s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	card, err := s.assemble(ctx, studentID, year)
	if err != nil {
		return nil, err
	}

	if s.cacheActive() {
		if err := s.cache.Set(ctx, key, card, s.config.CacheTTL); err != nil {
			s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return card, nil
}

// ExportCSV renders the report card as CSV.
func (s *ReportService) ExportCSV(ctx context.Context, actor models.Actor, studentID string, year int) ([]byte, error) {
	card, err := s.GetReportCard(ctx, actor, studentID, year)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(reportDataset(card))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
	}
	return data, nil
}

// ExportPDF renders the report card as PDF.
func (s *ReportService) ExportPDF(ctx context.Context, actor models.Actor, studentID string, year int) ([]byte, error) {
	card, err := s.GetReportCard(ctx, actor, studentID, year)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("Boletim %s - %d", card.StudentName, card.Year)
	data, err := s.pdf.Render(reportDataset(card), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
	}
	return data, nil
}

// InvalidateStudent drops every cached report card of one student.
func (s *ReportService) InvalidateStudent(ctx context.Context, studentID string) error {
	if !s.cacheActive() {
		return nil
	}
	return s.cache.DeleteByPattern(ctx, fmt.Sprintf("report:student:%s:*", studentID))
}

// InvalidateAll drops every cached report card. Used after structural
// changes such as subject deletion.
func (s *ReportService) InvalidateAll(ctx context.Context) error {
	if !s.cacheActive() {
		return nil
	}
	return s.cache.DeleteByPattern(ctx, "report:student:*")
}

func reportCacheKey(studentID string, year int) string {
	return fmt.Sprintf("report:student:%s:year:%d", studentID, year)
}

func (s *ReportService) cacheActive() bool {
	return s.config.CacheEnabled && s.cache != nil
}

func (s *ReportService) assemble(ctx context.Context, studentID string, year int) (*models.ReportCard, error) {
	student, err := s.accounts.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	team, err := s.teams.FindForStudent(ctx, studentID, year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student has no team for this year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student team")
	}

	subjects, _, err := s.subjects.List(ctx, models.SubjectFilter{TeamID: team.ID, PageSize: 500})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list team subjects")
	}

	entries, err := s.grades.ListFor(ctx, models.GradeFilter{StudentID: studentID, TeamID: team.ID, Year: year})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade entries")
	}

	bySubject := make(map[string][]models.GradeEntryDetail, len(subjects))
	for _, entry := range entries {
		bySubject[entry.SubjectID] = append(bySubject[entry.SubjectID], entry)
	}

	card := &models.ReportCard{
		StudentID:   studentID,
		StudentName: student.FullName(),
		TeamID:      team.ID,
		Year:        year,
		Subjects:    make([]models.ReportCardSubject, 0, len(subjects)),
	}

	for _, subject := range subjects {
		subjectEntries := bySubject[subject.ID]
		averages := make([]models.PeriodAverage, 0, len(subjectEntries))
		values := make([]float64, 0, len(subjectEntries))
		for _, entry := range subjectEntries {
			averages = append(averages, models.PeriodAverage{
				PeriodOrdinal: entry.PeriodOrdinal,
				PeriodYear:    entry.PeriodYear,
				Average:       entry.Average,
			})
			values = append(values, entry.Average)
		}
		card.Subjects = append(card.Subjects, models.ReportCardSubject{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Averages:    averages,
			Status:      s.evaluation.Evaluate(values, models.PeriodsPerYear),
		})
	}

	sort.Slice(card.Subjects, func(i, j int) bool {
		return card.Subjects[i].SubjectName < card.Subjects[j].SubjectName
	})
	return card, nil
}

func reportDataset(card *models.ReportCard) export.Dataset {
	headers := []string{"Disciplina"}
	for ordinal := 1; ordinal <= models.PeriodsPerYear; ordinal++ {
		headers = append(headers, fmt.Sprintf("%dº Bimestre", ordinal))
	}
	headers = append(headers, "Situação")

	rows := make([]map[string]string, 0, len(card.Subjects))
	for _, subject := range card.Subjects {
		row := map[string]string{"Disciplina": subject.SubjectName, "Situação": string(subject.Status)}
		for _, avg := range subject.Averages {
			row[fmt.Sprintf("%dº Bimestre", avg.PeriodOrdinal)] = fmt.Sprintf("%.2f", avg.Average)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
