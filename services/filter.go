package services

import (
	"sort"

	"github.com/pauloqxm/voce-denuncia/models"
)

// AllOption is the sentinel selection that disables a filter dimension.
const AllOption = "Todos"

// TypeOptions lists distinct complaint types, sorted, after AllOption.
func TypeOptions(records []*models.ComplaintRecord) []string {
	return distinctOptions(records, func(r *models.ComplaintRecord) string { return r.ComplaintType })
}

// NeighborhoodOptions lists distinct neighborhoods, sorted, after AllOption.
func NeighborhoodOptions(records []*models.ComplaintRecord) []string {
	return distinctOptions(records, func(r *models.ComplaintRecord) string { return r.Neighborhood })
}

func distinctOptions(records []*models.ComplaintRecord, field func(*models.ComplaintRecord) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		v := field(r)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return append([]string{AllOption}, values...)
}

// Filter keeps records matching both dimensions of sel, in source order.
// An empty dimension behaves like AllOption.
func Filter(records []*models.ComplaintRecord, sel models.Selection) []*models.ComplaintRecord {
	out := make([]*models.ComplaintRecord, 0, len(records))
	for _, r := range records {
		if !matches(sel.Type, r.ComplaintType) || !matches(sel.Neighborhood, r.Neighborhood) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(selected, value string) bool {
	return selected == "" || selected == AllOption || selected == value
}

// MapCenter is the mean position of the records with valid coordinates.
// ok is false when there are none.
func MapCenter(records []*models.ComplaintRecord) (center models.Point, ok bool) {
	var sumLat, sumLon float64
	n := 0
	for _, r := range records {
		if !r.HasLocation() {
			continue
		}
		sumLat += *r.Latitude
		sumLon += *r.Longitude
		n++
	}
	if n == 0 {
		return models.Point{}, false
	}
	return models.Point{Latitude: sumLat / float64(n), Longitude: sumLon / float64(n)}, true
}

// BuildMapView selects the placeable records and their center.
func BuildMapView(records []*models.ComplaintRecord) *models.MapView {
	view := &models.MapView{Markers: make([]*models.ComplaintRecord, 0, len(records))}
	for _, r := range records {
		if r.HasLocation() {
			view.Markers = append(view.Markers, r)
		}
	}
	if center, ok := MapCenter(view.Markers); ok {
		view.Center = &center
	}
	return view
}
