package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "collectlink"

// Exporter adapts a Collector to the prometheus.Collector interface.
// Values are read from the atomic counters at scrape time.
type Exporter struct {
	c *Collector

	connectionsActive *prometheus.Desc
	connectionsTotal  *prometheus.Desc
	handshakesTotal   *prometheus.Desc
	requestsTotal     *prometheus.Desc
	keepAliveReuses   *prometheus.Desc
	responsesTotal    *prometheus.Desc
	bytesTotal        *prometheus.Desc
	certCacheTotal    *prometheus.Desc
	errorsTotal       *prometheus.Desc
}

// NewExporter returns an Exporter reading from c.
func NewExporter(c *Collector) *Exporter {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}
	return &Exporter{
		c:                 c,
		connectionsActive: desc("connections_active", "Number of established collector connections"),
		connectionsTotal:  desc("connections_total", "Collector connections established since start"),
		handshakesTotal:   desc("tls_handshakes_total", "Completed TLS handshakes"),
		requestsTotal:     desc("requests_total", "Requests written to collectors"),
		keepAliveReuses:   desc("keepalive_reuses_total", "Requests sent on an already used connection"),
		responsesTotal:    desc("responses_total", "Responses received by status class", "class"),
		bytesTotal:        desc("bytes_total", "Bytes transferred", "direction"),
		certCacheTotal:    desc("cert_cache_events_total", "Certificate cache events", "event"),
		errorsTotal:       desc("errors_total", "Transport errors"),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.connectionsActive
	ch <- e.connectionsTotal
	ch <- e.handshakesTotal
	ch <- e.requestsTotal
	ch <- e.keepAliveReuses
	ch <- e.responsesTotal
	ch <- e.bytesTotal
	ch <- e.certCacheTotal
	ch <- e.errorsTotal
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.c.Snapshot()
	counter := func(d *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	ch <- prometheus.MustNewConstMetric(e.connectionsActive, prometheus.GaugeValue, float64(s.ConnectionsActive))
	counter(e.connectionsTotal, s.ConnectionsTotal)
	counter(e.handshakesTotal, s.HandshakesTotal)
	counter(e.requestsTotal, s.RequestsTotal)
	counter(e.keepAliveReuses, s.KeepAliveReuses)
	counter(e.responsesTotal, s.Responses2xx, "2xx")
	counter(e.responsesTotal, s.Responses4xx, "4xx")
	counter(e.responsesTotal, s.Responses5xx, "5xx")
	counter(e.responsesTotal, s.ResponsesOther, "other")
	counter(e.bytesTotal, s.BytesIn, "in")
	counter(e.bytesTotal, s.BytesOut, "out")
	counter(e.certCacheTotal, s.CertCacheHits, "hit")
	counter(e.certCacheTotal, s.CertCacheMisses, "miss")
	counter(e.certCacheTotal, s.CertCacheReloads, "reload")
	counter(e.certCacheTotal, s.CertCacheEvicted, "evict")
	counter(e.errorsTotal, s.ErrorsTotal)
}

// Registry returns a fresh registry with c registered on it.
func Registry(c *Collector) *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(NewExporter(c))
	return r
}

// Handler serves c in the Prometheus text format.
func Handler(c *Collector) http.Handler {
	return promhttp.HandlerFor(Registry(c), promhttp.HandlerOpts{})
}
