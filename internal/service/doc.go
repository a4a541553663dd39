// Package service hosts one string-labelled classifier for transports.
//
// The classifier itself is single-threaded. Service serializes every call
// behind a mutex, tags the context with the instance ID for log
// correlation, assigns source references to samples that arrive without
// one, and publishes pool sizes as Prometheus gauges.
package service
