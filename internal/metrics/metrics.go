package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shapefile_uploads_total",
		Help: "Total dataset uploads by outcome",
	}, []string{"outcome"})
	UploadFeatures = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shapefile_upload_features",
		Help:    "Features persisted per successful upload",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
	})
	UploadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shapefile_upload_duration_ms",
		Help:    "Upload pipeline duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	ImagerySearchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shapefile_imagery_search_total",
		Help: "Imagery provider search calls by outcome",
	}, []string{"outcome"})
	ScriptRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shapefile_script_runs_total",
		Help: "Raster script invocations by outcome",
	}, []string{"outcome"})
	ScriptDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shapefile_script_duration_ms",
		Help:    "Raster script run duration in milliseconds",
		Buckets: []float64{500, 1000, 5000, 15000, 30000, 60000, 120000, 300000},
	})
)

func init() {
	prometheus.MustRegister(UploadsTotal)
	prometheus.MustRegister(UploadFeatures)
	prometheus.MustRegister(UploadDurationMs)
	prometheus.MustRegister(ImagerySearchTotal)
	prometheus.MustRegister(ScriptRunsTotal)
	prometheus.MustRegister(ScriptDurationMs)
}

// Handler returns the Prometheus scrape handler mounted at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
