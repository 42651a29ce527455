package docstore

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// Metrics holds the document store collectors.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the store collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docstore_calls_total",
				Help: "Total number of document store calls",
			},
			[]string{"op", "collection", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docstore_call_duration_seconds",
				Help:    "Document store call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "collection"},
		),
	}
	reg.MustRegister(m.calls, m.duration)
	return m
}

type instrumented struct {
	next    ports.DocumentStore
	metrics *Metrics
	log     *logger.Logger
}

// Instrument records metrics and debug logs for every call to next.
func Instrument(next ports.DocumentStore, metrics *Metrics, log *logger.Logger) ports.DocumentStore {
	return &instrumented{next: next, metrics: metrics, log: log.WithComponent("docstore")}
}

func (s *instrumented) observe(op, collection string, start time.Time, err error) {
	elapsed := time.Since(start)
	code := "200"
	if err != nil {
		if c := ports.StoreErrorCode(err); c != 0 {
			code = strconv.Itoa(c)
		} else {
			code = "error"
		}
	}
	if s.metrics != nil {
		s.metrics.calls.WithLabelValues(op, collection, code).Inc()
		s.metrics.duration.WithLabelValues(op, collection).Observe(elapsed.Seconds())
	}
	s.log.LogStoreCall(op, collection, float64(elapsed.Microseconds())/1000, err)
}

func (s *instrumented) Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*ports.Document, error) {
	start := time.Now()
	doc, err := s.next.Create(ctx, collection, id, fields)
	s.observe("create", collection, start, err)
	return doc, err
}

func (s *instrumented) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	start := time.Now()
	doc, err := s.next.Get(ctx, collection, id)
	s.observe("get", collection, start, err)
	return doc, err
}

func (s *instrumented) List(ctx context.Context, collection string, filters ...ports.Filter) ([]*ports.Document, error) {
	start := time.Now()
	docs, err := s.next.List(ctx, collection, filters...)
	s.observe("list", collection, start, err)
	return docs, err
}

func (s *instrumented) Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*ports.Document, error) {
	start := time.Now()
	doc, err := s.next.Update(ctx, collection, id, patch)
	s.observe("update", collection, start, err)
	return doc, err
}

func (s *instrumented) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, collection, id)
	s.observe("delete", collection, start, err)
	return err
}
