// Package telemetry exposes running engines to the outside world:
// Prometheus metrics, a channel feed of recorded transitions and Graphviz
// DOT export of transition tables.
package telemetry
