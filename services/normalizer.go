package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/pauloqxm/voce-denuncia/models"
	"github.com/pauloqxm/voce-denuncia/utils"
)

// Sheet column labels, after header normalization.
const (
	ColName           = "Nome"
	ColType           = "Tipo de Denúncia"
	ColNeighborhood   = "Bairro"
	ColNarrative      = "Breve relato"
	ColSubmissionTime = "_submission_time"
	ColSubmissionDate = "SubmissionDate"
	ColLatitude       = "Latitude"
	ColLongitude      = "Longitude"
	ColPhotoURL       = "Foto_URL"
)

// RequiredColumns must all be present for a sheet to be usable.
var RequiredColumns = []string{
	ColName, ColType, ColNeighborhood, ColNarrative,
	ColSubmissionDate, ColLatitude, ColLongitude,
}

// DisplayDateLayout is the DD/MM/YYYY HH:MM form shown to users.
const DisplayDateLayout = "02/01/2006 15:04"

var submissionLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
}

// missingTokens are cell contents spreadsheet tooling treats as "no value".
var missingTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// Normalizer turns a RawTable into clean ComplaintRecords.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize processes a raw table. A table with no header is an empty,
// valid dataset. A header lacking required columns is an IngestionError of
// kind MissingRequiredColumn. Cell-level problems only produce warnings.
func (n *Normalizer) Normalize(table *models.RawTable) (*models.LoadResult, error) {
	result := &models.LoadResult{Records: []*models.ComplaintRecord{}}
	if table == nil || len(table.Header) == 0 {
		n.logger.Warn("[normalizer] Source document is empty")
		return result, nil
	}

	header := NormalizeHeader(table.Header)
	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return result, &IngestionError{Kind: MissingRequiredColumn, Missing: missing}
	}

	dropped := 0
	for i, raw := range table.Rows {
		if isEmptyRow(raw) {
			dropped++
			continue
		}

		row := rowReader{cells: raw, index: index, row: i + 1}
		rec := &models.ComplaintRecord{
			Row:            row.row,
			Name:           row.text(ColName),
			ComplaintType:  row.text(ColType),
			Neighborhood:   row.text(ColNeighborhood),
			BriefNarrative: row.text(ColNarrative),
		}

		rec.SubmissionDate, rec.SubmittedAt = n.parseSubmission(&row, result)
		rec.Latitude = n.parseCoordinate(&row, ColLatitude, 90, result)
		rec.Longitude = n.parseCoordinate(&row, ColLongitude, 180, result)
		rec.PhotoURL = n.parsePhotoURL(&row, result)

		result.Records = append(result.Records, rec)
	}

	n.logger.Info("[normalizer] Normalized %d → %d records (dropped %d empty rows, %d field warnings)",
		len(table.Rows), len(result.Records), dropped, len(result.Warnings))
	return result, nil
}

// NormalizeHeader trims labels, strips a byte-order mark, composes accents and
// renames the submission-time column to its stable name.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		h = norm.NFC.String(h)
		if h == ColSubmissionTime {
			h = ColSubmissionDate
		}
		out[i] = h
	}
	return out
}

func (n *Normalizer) parseSubmission(row *rowReader, result *models.LoadResult) (string, *time.Time) {
	raw := row.text(ColSubmissionDate)
	if raw == "" {
		return "", nil
	}
	t, ok := ParseSubmissionTime(raw)
	if !ok {
		n.warn(result, row.row, ColSubmissionDate, raw, "unrecognised date-time, kept as raw text")
		return raw, nil
	}
	return t.Format(DisplayDateLayout), &t
}

func (n *Normalizer) parseCoordinate(row *rowReader, col string, limit float64, result *models.LoadResult) *float64 {
	raw := row.text(col)
	if raw == "" {
		return nil
	}
	v, ok := ParseCoordinate(raw)
	if !ok {
		n.warn(result, row.row, col, raw, "not a number")
		return nil
	}
	if math.Abs(v) > limit {
		n.warn(result, row.row, col, raw, "out of range")
		return nil
	}
	return &v
}

func (n *Normalizer) parsePhotoURL(row *rowReader, result *models.LoadResult) string {
	raw := row.text(ColPhotoURL)
	if raw == "" {
		return ""
	}
	u := NormalizePhotoURL(raw)
	if u == "" {
		n.warn(result, row.row, ColPhotoURL, raw, "not an http(s) URL")
	}
	return u
}

func (n *Normalizer) warn(result *models.LoadResult, row int, col, raw, reason string) {
	n.logger.Debug("[normalizer] Row %d %s=%q: %s", row, col, raw, reason)
	result.Warnings = append(result.Warnings, models.FieldWarning{
		Row: row, Column: col, Raw: raw, Reason: reason,
	})
}

// ParseSubmissionTime accepts ISO-8601 variants and day-first Brazilian forms.
// The returned time keeps the offset written in the value.
func ParseSubmissionTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range submissionLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCoordinate reads a decimal number written with either a period or a
// comma as decimal separator. NaN and infinities are rejected. It does not
// check the range; the normalizer drops |lat| > 90 and |lon| > 180 with an
// "out of range" warning.
func ParseCoordinate(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// NormalizePhotoURL applies the comma→period fix and keeps only http(s)
// URLs. Anything else yields "".
func NormalizePhotoURL(raw string) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return ""
}

// IsMissing reports whether a cell holds no value.
func IsMissing(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" {
		return true
	}
	_, ok := missingTokens[s]
	return ok
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if !IsMissing(c) {
			return false
		}
	}
	return true
}

// rowReader addresses cells of one data row by normalized column name.
type rowReader struct {
	cells []string
	index map[string]int
	row   int
}

// text returns the trimmed cell, or "" when the column is absent, the row is
// short, or the cell is a missing-value token.
func (r *rowReader) text(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	if IsMissing(r.cells[i]) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}
