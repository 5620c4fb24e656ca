// Package metrics exposes Prometheus instrumentation for carefind: HTTP
// request metrics, search outcomes, embedding calls and index batch writes.
//
// HTTP metrics are registered at init. Call Register once from main to add
// the search, embedding and index collectors to the default registry.
package metrics
