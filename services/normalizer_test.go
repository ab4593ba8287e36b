package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauloqxm/voce-denuncia/models"
	"github.com/pauloqxm/voce-denuncia/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

var sampleHeader = []string{
	"Nome", "Tipo de Denúncia", "Bairro", "Breve relato",
	"_submission_time", "Latitude", "Longitude", "Foto_URL",
}

func sampleTable() *models.RawTable {
	return &models.RawTable{
		Header: sampleHeader,
		Rows: [][]string{
			{"Ana", "Buraco", "Centro", "Buraco na rua", "2025-05-20T14:33:12", "-3,7319", "-38,5267", "https://img.example/a,jpg"},
			{"", "", "", "", "", "", "", ""},
			{"Bia", "Lixo", "Aldeota", "Lixo acumulado", "ontem", "abc", "", "foto.jpg"},
			{"NA", "nan", "N/A", "", "null", "", "", ""},
			{"Caio", "Buraco", "Meireles", "Outro buraco", "21/05/2025 08:00", "-3.7250", "-38.4900", ""},
		},
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"-23,55", -23.55, true},
		{"-23.55", -23.55, true},
		{"  -3,7319 ", -3.7319, true},
		{"10", 10, true},
		{"", 0, false},
		{"abc", 0, false},
		{"nan", 0, false},
		{"inf", 0, false},
		{"1,234,5", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseCoordinate(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseCoordinate(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseCoordinateCommaMatchesPeriod(t *testing.T) {
	for _, period := range []string{"-23.55", "0.5", "-38.526712", "89.999999", "12"} {
		comma := ""
		for _, r := range period {
			if r == '.' {
				comma += ","
			} else {
				comma += string(r)
			}
		}
		a, okA := ParseCoordinate(comma)
		b, okB := ParseCoordinate(period)
		require.True(t, okA && okB, "%s / %s", comma, period)
		assert.Equal(t, b, a, "comma form %q", comma)
	}
}

func TestNormalizePhotoURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://img.example/a.jpg", "https://img.example/a.jpg"},
		{"http://img.example/a,jpg", "http://img.example/a.jpg"},
		{" https://img.example/b.png ", "https://img.example/b.png"},
		{"ftp://img.example/a.jpg", ""},
		{"img.example/a.jpg", ""},
		{"HTTPS://img.example/a.jpg", ""},
		{"nan", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizePhotoURL(tt.raw); got != tt.want {
			t.Errorf("NormalizePhotoURL(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseSubmissionTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2025-05-20T14:33:12", "20/05/2025 14:33"},
		{"2025-05-20T14:33:12.481", "20/05/2025 14:33"},
		{"2025-05-20T14:33:12-03:00", "20/05/2025 14:33"},
		{"2025-05-20T14:33:12Z", "20/05/2025 14:33"},
		{"2025-05-20 09:05:00", "20/05/2025 09:05"},
		{"2025-05-20", "20/05/2025 00:00"},
		{"20/05/2025 14:33", "20/05/2025 14:33"},
		{"20/05/2025 14:33:59", "20/05/2025 14:33"},
		{"20/05/2025", "20/05/2025 00:00"},
		{"5/3/2025 9:05:00", "05/03/2025 09:05"},
		{"5/3/2025 9:05", "05/03/2025 09:05"},
		{"5/3/2025", "05/03/2025 00:00"},
	}

	for _, tt := range tests {
		got, ok := ParseSubmissionTime(tt.raw)
		if !ok {
			t.Errorf("ParseSubmissionTime(%q) failed", tt.raw)
			continue
		}
		if s := got.Format(DisplayDateLayout); s != tt.want {
			t.Errorf("ParseSubmissionTime(%q) = %s; want %s", tt.raw, s, tt.want)
		}
	}

	for _, raw := range []string{"ontem", "31/02/2025", "2025/05/20", "13:00"} {
		if _, ok := ParseSubmissionTime(raw); ok {
			t.Errorf("ParseSubmissionTime(%q) should fail", raw)
		}
	}
}

func TestNormalizeHeader(t *testing.T) {
	got := NormalizeHeader([]string{"\ufeff Nome ", "Tipo de Denu\u0301ncia", "  _submission_time", "Bairro\t"})
	want := []string{"Nome", "Tipo de Denúncia", "SubmissionDate", "Bairro"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeHeader mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeSample(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	result, err := n.Normalize(sampleTable())
	require.NoError(t, err)
	require.Len(t, result.Records, 3)

	ana, bia, caio := result.Records[0], result.Records[1], result.Records[2]

	assert.Equal(t, []int{1, 3, 5}, []int{ana.Row, bia.Row, caio.Row})

	assert.Equal(t, "Ana", ana.Name)
	assert.Equal(t, "Buraco", ana.ComplaintType)
	assert.Equal(t, "20/05/2025 14:33", ana.SubmissionDate)
	require.NotNil(t, ana.SubmittedAt)
	require.True(t, ana.HasLocation())
	assert.Equal(t, -3.7319, *ana.Latitude)
	assert.Equal(t, -38.5267, *ana.Longitude)
	assert.Equal(t, "https://img.example/a.jpg", ana.PhotoURL)

	assert.Equal(t, "ontem", bia.SubmissionDate, "unparsable timestamp keeps its raw text")
	assert.Nil(t, bia.SubmittedAt)
	assert.False(t, bia.HasLocation(), "record without coordinates stays in the set")
	assert.Empty(t, bia.PhotoURL)

	assert.Equal(t, "21/05/2025 08:00", caio.SubmissionDate)
	assert.True(t, caio.HasLocation())

	want := []models.FieldWarning{
		{Row: 3, Column: ColSubmissionDate, Raw: "ontem", Reason: "unrecognised date-time, kept as raw text"},
		{Row: 3, Column: ColLatitude, Raw: "abc", Reason: "not a number"},
		{Row: 3, Column: ColPhotoURL, Raw: "foto.jpg", Reason: "not an http(s) URL"},
	}
	if diff := cmp.Diff(want, result.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDropsEmptyRowsIdempotently(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	table := sampleTable()

	var kept [][]string
	for _, row := range table.Rows {
		if !isEmptyRow(row) {
			kept = append(kept, row)
		}
	}
	assert.Len(t, kept, 3)

	again := 0
	for _, row := range kept {
		if !isEmptyRow(row) {
			again++
		}
	}
	assert.Equal(t, len(kept), again)

	first, err := n.Normalize(table)
	require.NoError(t, err)
	second, err := n.Normalize(&models.RawTable{Header: table.Header, Rows: kept})
	require.NoError(t, err)
	assert.Equal(t, len(first.Records), len(second.Records))
}

func TestNormalizeShortRowsAndOutOfRange(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	result, err := n.Normalize(&models.RawTable{
		Header: sampleHeader[:7],
		Rows: [][]string{
			{"Ana", "Buraco"},
			{"Bia", "Lixo", "Centro", "", "", "123,4", "-38,5"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "Buraco", result.Records[0].ComplaintType)
	assert.Empty(t, result.Records[0].Neighborhood)

	assert.Nil(t, result.Records[1].Latitude)
	require.NotNil(t, result.Records[1].Longitude)
	assert.Equal(t, -38.5, *result.Records[1].Longitude)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "out of range", result.Warnings[0].Reason)
}

func TestNormalizeMissingColumns(t *testing.T) {
	n := NewNormalizer(newTestLogger())
	result, err := n.Normalize(&models.RawTable{
		Header: []string{"Nome", "Tipo de Denúncia", "Breve relato", "SubmissionDate", "Longitude"},
		Rows:   [][]string{{"Ana", "Buraco", "x", "2025-05-20", "-38"}},
	})

	require.Error(t, err)
	assert.True(t, IsKind(err, MissingRequiredColumn))
	ie, ok := AsIngestionError(err)
	require.True(t, ok)
	assert.Equal(t, []string{ColNeighborhood, ColLatitude}, ie.Missing)
	assert.Contains(t, err.Error(), "Bairro, Latitude")
	assert.NotNil(t, result)
	assert.Empty(t, result.Records)
}

func TestNormalizeEmptyDocument(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	for _, table := range []*models.RawTable{nil, {}} {
		result, err := n.Normalize(table)
		require.NoError(t, err)
		assert.Empty(t, result.Records)
	}
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", "  ", "NA", "N/A", "nan", "NaN", "null", "NULL", "None", "#N/A", "<NA>"} {
		assert.True(t, IsMissing(s), "%q", s)
	}
	for _, s := range []string{"0", "Nada", "na rua", "-"} {
		assert.False(t, IsMissing(s), "%q", s)
	}
}
