package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodgram_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain
	RecipesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_recipes_written_total",
			Help: "Recipes created, updated or deleted",
		},
		[]string{"operation"},
	)

	RelationsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodgram_relations_toggled_total",
			Help: "Favorite, cart and subscription rows added or removed",
		},
		[]string{"relation", "action"},
	)

	ShoppingListsDownloaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodgram_shopping_lists_downloaded_total",
			Help: "Shopping list downloads",
		},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecipeWrite counts a successful create, update or delete.
func RecordRecipeWrite(operation string) {
	RecipesWritten.WithLabelValues(operation).Inc()
}

// RecordToggle counts a successful add or remove on a relation.
func RecordToggle(relation, action string) {
	RelationsToggled.WithLabelValues(relation, action).Inc()
}
