// Package internaldefs holds the metric names, help strings and histogram
// bounds shared by the OpenTelemetry and Prometheus exporters.
package internaldefs
