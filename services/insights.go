package services

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pauloqxm/voce-denuncia/models"
	"github.com/pauloqxm/voce-denuncia/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(records []*models.ComplaintRecord, warnings []models.FieldWarning) *models.InsightReport {
	report := &models.InsightReport{
		RecordsByType:         make(map[string]int),
		RecordsByNeighborhood: make(map[string]int),
		WarningCount:          len(warnings),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalRecords = len(records)

	for _, r := range records {
		if r.HasLocation() {
			report.MappedRecords++
		} else {
			report.UnmappedRecords++
		}
		if r.PhotoURL != "" {
			report.WithPhoto++
		}
		if r.ComplaintType != "" {
			report.RecordsByType[r.ComplaintType]++
		}
		if r.Neighborhood != "" {
			report.RecordsByNeighborhood[r.Neighborhood]++
		}
		if r.SubmittedAt != nil {
			if report.FirstSubmission == nil || r.SubmittedAt.Before(*report.FirstSubmission) {
				report.FirstSubmission = r.SubmittedAt
			}
			if report.LastSubmission == nil || r.SubmittedAt.After(*report.LastSubmission) {
				report.LastSubmission = r.SubmittedAt
			}
		}
	}

	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;34m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;34m  📋 DENÚNCIAS POPULARES\033[0m\n")
	fmt.Fprintf(w, "\033[1;34m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total records      : \033[1m%d\033[0m\n", r.TotalRecords)
	fmt.Fprintf(w, "  On the map         : \033[1m%d\033[0m\n", r.MappedRecords)
	fmt.Fprintf(w, "  Without location   : \033[1m%d\033[0m\n", r.UnmappedRecords)
	fmt.Fprintf(w, "  With photo         : \033[1m%d\033[0m\n", r.WithPhoto)
	fmt.Fprintf(w, "  Field warnings     : \033[1m%d\033[0m\n", r.WarningCount)
	if r.FirstSubmission != nil && r.LastSubmission != nil {
		fmt.Fprintf(w, "  Period             : %s → %s\n",
			r.FirstSubmission.Format(DisplayDateLayout), r.LastSubmission.Format(DisplayDateLayout))
	}
	fmt.Fprintln(w)

	printCounts(w, "By complaint type", r.RecordsByType, thin)
	printCounts(w, "By neighborhood", r.RecordsByNeighborhood, thin)

	fmt.Fprintf(w, "\033[1;34m%s\033[0m\n\n", sep)
}

type labelCount struct {
	label string
	count int
}

// sortedCounts orders by count descending, then label ascending.
func sortedCounts(m map[string]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for label, n := range m {
		out = append(out, labelCount{label, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].label < out[j].label
	})
	return out
}

func printCounts(w io.Writer, title string, m map[string]int, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(m) == 0 {
		fmt.Fprintf(w, "  No data\n\n")
		return
	}
	for _, lc := range sortedCounts(m) {
		bar := strings.Repeat("█", min(lc.count, 30))
		fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(lc.label, 28), bar, lc.count)
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
