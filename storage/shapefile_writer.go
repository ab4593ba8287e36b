package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"

	"github.com/pauloqxm/voce-denuncia/models"
)

const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// shapefileFields is the DBF schema. Field names are limited to 10 bytes.
var shapefileFields = []shp.Field{
	shp.StringField("NOME", 80),
	shp.StringField("TIPO", 80),
	shp.StringField("BAIRRO", 80),
	shp.StringField("RELATO", 254),
	shp.StringField("DATA", 20),
	shp.StringField("FOTO_URL", 254),
}

// ShapefileWriter exports mapped complaints as a WGS-84 point shapefile.
// Records without valid coordinates are skipped.
type ShapefileWriter struct {
	path string
}

// NewShapefileWriter prepares a writer for path (the .shp file; the .shx,
// .dbf, .prj and .cpg siblings are written next to it).
func NewShapefileWriter(path string) (*ShapefileWriter, error) {
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		path += ".shp"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("shapefile: create output dir: %w", err)
	}
	return &ShapefileWriter{path: path}, nil
}

// Path returns the .shp file path.
func (w *ShapefileWriter) Path() string { return w.path }

// Write creates the shapefile set, replacing any previous one.
func (w *ShapefileWriter) Write(records []*models.ComplaintRecord) error {
	out, err := shp.Create(w.path, shp.POINT)
	if err != nil {
		return fmt.Errorf("shapefile: create %q: %w", w.path, err)
	}
	defer out.Close()

	if err := out.SetFields(shapefileFields); err != nil {
		return fmt.Errorf("shapefile: set fields: %w", err)
	}

	for _, r := range records {
		if !r.HasLocation() {
			continue
		}
		idx := int(out.Write(&shp.Point{X: *r.Longitude, Y: *r.Latitude}))

		values := []string{r.Name, r.ComplaintType, r.Neighborhood, r.BriefNarrative, r.SubmissionDate, r.PhotoURL}
		for field, v := range values {
			v = truncateBytes(v, int(shapefileFields[field].Size))
			if err := out.WriteAttribute(idx, field, v); err != nil {
				return fmt.Errorf("shapefile: row %d field %d: %w", r.Row, field, err)
			}
		}
	}

	base := strings.TrimSuffix(w.path, filepath.Ext(w.path))
	if err := os.WriteFile(base+".prj", []byte(wgs84WKT), 0644); err != nil {
		return fmt.Errorf("shapefile: write prj: %w", err)
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0644); err != nil {
		return fmt.Errorf("shapefile: write cpg: %w", err)
	}
	return nil
}

func (w *ShapefileWriter) Close() error { return nil }

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
