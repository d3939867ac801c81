package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// DraftSource lists drafts; satisfied by the API drafts client and the local cache.
type DraftSource interface {
	List(ctx context.Context) ([]entity.Draft, error)
}

// Service is a tiny façade over a draft source that produces XLSX bytes for exports.
type Service struct {
	drafts DraftSource
	logger *slog.Logger
}

func NewService(drafts DraftSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{drafts: drafts, logger: logger}
}

// Filter narrows the exported drafts. Zero values match everything.
type Filter struct {
	From         *time.Time
	To           *time.Time
	DocumentType string
}

const (
	draftsSheet  = "Drafts"
	qualitySheet = "Quality"
)

// ExportDraftsXLSX returns a workbook with one row per matching draft, newest first.
// If only From is provided the window ends today (inclusive); if only To, it has no start.
// When scores is non-empty a second sheet lists them for the exported drafts.
func (s *Service) ExportDraftsXLSX(ctx context.Context, filter Filter, scores map[int64]entity.QualityScore) ([]byte, error) {
	start := time.Now()

	all, err := s.drafts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	drafts := applyFilter(all, filter, time.Now().UTC())
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.After(drafts[j].CreatedAt.Time)
	})

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", draftsSheet); err != nil {
		return nil, err
	}

	writeRow(f, draftsSheet, 1, "ID", "Title", "Document Type", "Case Type",
		"Created", "Updated", "Citations", "Words", "Preview")
	for i, d := range drafts {
		writeRow(f, draftsSheet, i+2,
			d.ID,
			d.Title,
			humanize(d.DocumentType),
			humanize(d.CaseType),
			formatDate(d.CreatedAt.Time),
			formatDate(d.UpdatedAt.Time),
			len(d.Citations),
			len(strings.Fields(d.Content)),
			truncate(strings.Join(strings.Fields(d.Content), " "), 140),
		)
	}

	_ = f.SetColWidth(draftsSheet, "A", "A", 8)
	_ = f.SetColWidth(draftsSheet, "B", "B", 36)
	_ = f.SetColWidth(draftsSheet, "C", "D", 22)
	_ = f.SetColWidth(draftsSheet, "E", "F", 14)
	_ = f.SetColWidth(draftsSheet, "G", "H", 10)
	_ = f.SetColWidth(draftsSheet, "I", "I", 60)

	scored := 0
	if len(scores) > 0 {
		if _, err := f.NewSheet(qualitySheet); err != nil {
			return nil, err
		}
		writeRow(f, qualitySheet, 1, "Draft ID", "Overall", "Grade", "Structure",
			"Tone", "Completeness", "Legal References", "Grammar")
		for _, d := range drafts {
			q, ok := scores[d.ID]
			if !ok {
				continue
			}
			scored++
			writeRow(f, qualitySheet, scored+1,
				d.ID, q.OverallScore, q.Grade(), q.StructureScore, q.ToneScore,
				q.CompletenessScore, q.LegalReferencesScore, q.GrammarScore)
		}
		_ = f.SetColWidth(qualitySheet, "A", "H", 16)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(drafts),
		"scored", scored,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func applyFilter(drafts []entity.Draft, filter Filter, now time.Time) []entity.Draft {
	from, to := dateOnly(filter.From), dateOnly(filter.To)
	if from != nil && to == nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		to = &today
	}

	out := make([]entity.Draft, 0, len(drafts))
	for _, d := range drafts {
		if filter.DocumentType != "" && d.DocumentType != filter.DocumentType {
			continue
		}
		created := d.CreatedAt.UTC()
		if from != nil && created.Before(*from) {
			continue
		}
		if to != nil && !created.Before(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// humanize turns "bail_application" into "Bail Application".
func humanize(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
