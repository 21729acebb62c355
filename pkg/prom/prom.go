package prom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/cartwisp/recovery-gateway/pkg/logger"
	"github.com/cartwisp/recovery-gateway/pkg/xhttp"
)

const (
	SystemCarts   = "carts"
	SystemCoupons = "coupons"
)

const (
	MetricRemindersSent  = "reminders_sent_total"
	MetricSendFailures   = "send_failures_total"
	MetricCartsRecovered = "recovered_total"
	MetricCouponsIssued  = "issued_total"
	MetricCouponsSwept   = "swept_total"
	MetricScanDuration   = "scan_duration_seconds"
	MetricScanCandidates = "scan_candidates"
)

var lockCreateMetric = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var counterVecs = make(map[string]*prometheus.CounterVec)
var counters = make(map[string]prometheus.Counter)
var histograms = make(map[string]prometheus.Histogram)
var gauges = make(map[string]prometheus.Gauge)

var defaultLabels prometheus.Labels

func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemCarts, MetricRemindersSent, []string{"step"}))
	hasError(createCounterVec(SystemCarts, MetricSendFailures, []string{"step", "reason"}))
	hasError(createCounter(SystemCarts, MetricCartsRecovered))
	hasError(createCounterVec(SystemCoupons, MetricCouponsIssued, []string{"step"}))
	hasError(createCounter(SystemCoupons, MetricCouponsSwept))
	hasError(createHistogram(SystemCarts, MetricScanDuration))
	hasError(createGauge(SystemCarts, MetricScanCandidates))

	return err
}

func ListenAndServer(port string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func AddReminderSent(step string) {
	if !MetricSystemEnabled {
		return
	}
	if c, ok := counterVecs[SystemCarts+MetricRemindersSent]; ok {
		c.WithLabelValues(step).Inc()
	}
}

func AddSendFailure(step, reason string) {
	if !MetricSystemEnabled {
		return
	}
	if c, ok := counterVecs[SystemCarts+MetricSendFailures]; ok {
		c.WithLabelValues(step, reason).Inc()
	}
}

func AddCartRecovered() {
	if !MetricSystemEnabled {
		return
	}
	if c, ok := counters[SystemCarts+MetricCartsRecovered]; ok {
		c.Inc()
	}
}

func AddCouponIssued(step string) {
	if !MetricSystemEnabled {
		return
	}
	if c, ok := counterVecs[SystemCoupons+MetricCouponsIssued]; ok {
		c.WithLabelValues(step).Inc()
	}
}

func AddCouponsSwept(n int) {
	if !MetricSystemEnabled {
		return
	}
	if c, ok := counters[SystemCoupons+MetricCouponsSwept]; ok {
		c.Add(float64(n))
	}
}

func ObserveScanDuration(seconds float64) {
	if !MetricSystemEnabled {
		return
	}
	if h, ok := histograms[SystemCarts+MetricScanDuration]; ok {
		h.Observe(seconds)
	}
}

func SetScanCandidates(n int) {
	if !MetricSystemEnabled {
		return
	}
	if g, ok := gauges[SystemCarts+MetricScanCandidates]; ok {
		g.Set(float64(n))
	}
}

func createCounter(subsystem, name string) error {
	lockCreateMetric.Lock()
	defer lockCreateMetric.Unlock()
	counters[subsystem+name] = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	})
	return prometheus.Register(counters[subsystem+name])
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetric.Lock()
	defer lockCreateMetric.Unlock()
	counterVecs[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	return prometheus.Register(counterVecs[subsystem+name])
}

func createHistogram(subsystem, name string) error {
	lockCreateMetric.Lock()
	defer lockCreateMetric.Unlock()
	histograms[subsystem+name] = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	})
	return prometheus.Register(histograms[subsystem+name])
}

func createGauge(subsystem, name string) error {
	lockCreateMetric.Lock()
	defer lockCreateMetric.Unlock()
	gauges[subsystem+name] = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	})
	return prometheus.Register(gauges[subsystem+name])
}
