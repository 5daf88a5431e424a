package app

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"resty.dev/v3"
)

var apiLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "yalla_api_request_latency",
		Help:    "Histogram of backend API request latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	},
	[]string{"method", "path", "status_code"},
)

// APILatency is a resty response middleware observing every backend call.
func APILatency(_ *resty.Client, response *resty.Response) error {
	reqURL, err := url.Parse(response.Request.URL)
	if err != nil {
		return err
	}

	// path parameters are folded back so ids do not become label values
	path := reqURL.Path
	for name, value := range response.Request.PathParams {
		path = strings.ReplaceAll(path, "/"+url.PathEscape(value), "/{"+name+"}")
	}

	apiLatency.WithLabelValues(
		response.Request.Method,
		path,
		strconv.Itoa(response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}
