package metrics

import "sync"

// Recorder counts credit-engine events. Services call the package-level
// functions so metrics never become a hard dependency of business code.
type Recorder interface {
	RecordGrant(reason string)
	RecordConsume()
	RecordIdempotentReplay(operation string)
	RecordPromoRedemption()
	RecordEngineError(operation string)
}

type recorder struct {
	metrics *metrics
}

type noopRecorder struct{}

func (noopRecorder) RecordGrant(string)            {}
func (noopRecorder) RecordConsume()                {}
func (noopRecorder) RecordIdempotentReplay(string) {}
func (noopRecorder) RecordPromoRedemption()        {}
func (noopRecorder) RecordEngineError(string)      {}

var (
	activeRecorder Recorder = noopRecorder{}
	recorderMu     sync.RWMutex
)

func setRecorder(rec Recorder) {
	if rec == nil {
		return
	}
	recorderMu.Lock()
	activeRecorder = rec
	recorderMu.Unlock()
}

func get() Recorder {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	return rec
}

func RecordGrant(reason string) { get().RecordGrant(reason) }

func RecordConsume() { get().RecordConsume() }

func RecordIdempotentReplay(operation string) { get().RecordIdempotentReplay(operation) }

func RecordPromoRedemption() { get().RecordPromoRedemption() }

func RecordEngineError(operation string) { get().RecordEngineError(operation) }

func (r *recorder) RecordGrant(reason string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.grants.WithLabelValues(reason).Inc()
}

func (r *recorder) RecordConsume() {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.consumes.Inc()
}

func (r *recorder) RecordIdempotentReplay(operation string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.idempotentHits.WithLabelValues(operation).Inc()
}

func (r *recorder) RecordPromoRedemption() {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.promoRedemptions.Inc()
}

func (r *recorder) RecordEngineError(operation string) {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.engineErrors.WithLabelValues(operation).Inc()
}
