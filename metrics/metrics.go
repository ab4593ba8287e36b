package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pauloqxm/voce-denuncia/models"
)

// Load results used as the "result" label.
const (
	ResultOK                    = "ok"
	ResultFetchFailed           = "fetch_failed"
	ResultMissingRequiredColumn = "missing_required_column"
)

var (
	loadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "denuncias_loads_total",
			Help: "Total number of ingestion runs by result",
		},
		[]string{"result"},
	)

	loadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "denuncias_load_duration_seconds",
			Help:    "Ingestion run duration in seconds, fetch included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"result"},
	)

	recordsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "denuncias_records",
		Help: "Number of records in the current dataset",
	})

	mappedRecordsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "denuncias_mapped_records",
		Help: "Number of records in the current dataset with valid coordinates",
	})

	fieldWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "denuncias_field_warnings_total",
			Help: "Cells that fell back to raw text or absent during normalization",
		},
		[]string{"column"},
	)
)

// ObserveLoad records one ingestion run.
func ObserveLoad(result string, d time.Duration) {
	loadsTotal.WithLabelValues(result).Inc()
	loadDuration.WithLabelValues(result).Observe(d.Seconds())
}

// SetDataset publishes the size of the dataset now being served.
func SetDataset(records []*models.ComplaintRecord) {
	mapped := 0
	for _, r := range records {
		if r.HasLocation() {
			mapped++
		}
	}
	recordsGauge.Set(float64(len(records)))
	mappedRecordsGauge.Set(float64(mapped))
}

func AddFieldWarnings(warnings []models.FieldWarning) {
	for _, w := range warnings {
		fieldWarningsTotal.WithLabelValues(w.Column).Inc()
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
