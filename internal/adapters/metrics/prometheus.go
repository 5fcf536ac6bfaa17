// Package metrics exports bot activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Expiry modes and re-upload results used as label values.
const (
	ModeBulk       = "bulk"
	ModeIndividual = "individual"
	ResultOK       = "ok"
	ResultError    = "error"
)

// Prometheus implements app.BatchEventEmitter by updating counters.
type Prometheus struct {
	batchesCreated prometheus.Counter
	batchesExpired *prometheus.CounterVec
	reuploads      *prometheus.CounterVec
	strayDeleted   prometheus.Counter
}

// NewPrometheus registers flashguard metrics with reg. openBatches is
// sampled on every scrape to report the number of tracked batches.
func NewPrometheus(reg prometheus.Registerer, openBatches func() int) *Prometheus {
	f := promauto.With(reg)

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "flashguard_batches_open",
		Help: "Number of batches currently awaiting expiry.",
	}, func() float64 {
		return float64(openBatches())
	})

	return &Prometheus{
		batchesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "flashguard_batches_created_total",
			Help: "Total number of batches opened by a media post.",
		}),
		batchesExpired: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flashguard_batches_expired_total",
			Help: "Total number of batches deleted on expiry, by deletion mode.",
		}, []string{"mode"}),
		reuploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flashguard_reuploads_total",
			Help: "Total number of spoiler re-upload attempts, by result.",
		}, []string{"result"}),
		strayDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "flashguard_stray_deleted_total",
			Help: "Total number of messages deleted because no batch was open.",
		}),
	}
}

func (p *Prometheus) OnBatchCreated(string, int) {
	p.batchesCreated.Inc()
}

func (p *Prometheus) OnBatchExpired(_ string, _ int, bulk bool) {
	mode := ModeIndividual
	if bulk {
		mode = ModeBulk
	}
	p.batchesExpired.WithLabelValues(mode).Inc()
}

func (p *Prometheus) OnReupload(err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	p.reuploads.WithLabelValues(result).Inc()
}

func (p *Prometheus) OnStrayDeleted() {
	p.strayDeleted.Inc()
}
