// Package metrics provides the observability hooks for resolution, generation
// and serving.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	resolver := source.NewResolver(root, authority, source.WithRecorder(metrics.NoopRecorder{}))
//
// Serving mode swaps in a PrometheusRecorder when /metrics is enabled and
// exposes the registry through HTTPHandler.
package metrics
