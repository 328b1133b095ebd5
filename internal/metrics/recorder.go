package metrics

import "time"

// ResultLabel enumerates resolution and generation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess       ResultLabel = "success"
	ResultNotFound      ResultLabel = "not_found"
	ResultOutOfRoot     ResultLabel = "out_of_root"
	ResultReadError     ResultLabel = "read_error"
	ResultParseError    ResultLabel = "parse_error"
	ResultModifierError ResultLabel = "modifier_error"
	ResultCanceled      ResultLabel = "canceled"
	ResultFailed        ResultLabel = "failed"
)

// Recorder defines observability hooks. Implementations may forward to
// Prometheus or any other backend.
type Recorder interface {
	// ObserveResolveDuration records one resolution call; kind is "html" or "asset".
	ObserveResolveDuration(kind string, d time.Duration)
	IncResolveResult(result ResultLabel)
	AddMarkersRemoved(n int)
	ObserveGenerateEntry(d time.Duration, result ResultLabel)
	ObserveHTTPRequest(method string, status int, d time.Duration)
	SetLiveReloadClients(n int)
	IncLiveReloadBroadcast()
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveResolveDuration(string, time.Duration) {}
func (NoopRecorder) IncResolveResult(ResultLabel) {}
func (NoopRecorder) AddMarkersRemoved(int) {}
func (NoopRecorder) ObserveGenerateEntry(time.Duration, ResultLabel) {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}
func (NoopRecorder) SetLiveReloadClients(int) {}
func (NoopRecorder) IncLiveReloadBroadcast() {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
