package models

import "time"

// RawTable is a tabular document exactly as a source returned it: the header
// row followed by data rows. Rows may be shorter or longer than the header.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// ComplaintRecord is one normalized row of the complaints sheet.
// Empty strings and nil pointers mean the value is absent.
type ComplaintRecord struct {
	Row            int        `json:"row"`
	Name           string     `json:"nome,omitempty"`
	ComplaintType  string     `json:"tipo,omitempty"`
	Neighborhood   string     `json:"bairro,omitempty"`
	BriefNarrative string     `json:"relato,omitempty"`
	SubmissionDate string     `json:"data,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	PhotoURL       string     `json:"foto_url,omitempty"`
}

// HasLocation reports whether the record can be placed on the map.
func (r *ComplaintRecord) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// FieldWarning records a cell that could not be coerced and fell back to its
// raw text or to absent.
type FieldWarning struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// LoadResult is the output of one ingestion run.
type LoadResult struct {
	Records  []*ComplaintRecord
	Warnings []FieldWarning
}

// Selection is the pair of filter values chosen by the user.
type Selection struct {
	Type         string `json:"tipo"`
	Neighborhood string `json:"bairro"`
}

// Point is a WGS-84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// MapView is what the map adapter needs: a center and the placeable records.
// Center is nil when no record has valid coordinates.
type MapView struct {
	Center  *Point
	Markers []*ComplaintRecord
}

// InsightReport holds summary counts over a record set.
type InsightReport struct {
	TotalRecords          int
	MappedRecords         int
	UnmappedRecords       int
	WithPhoto             int
	WarningCount          int
	FirstSubmission       *time.Time
	LastSubmission        *time.Time
	RecordsByType         map[string]int
	RecordsByNeighborhood map[string]int
}
