// Package metrics はプロキシのPrometheusメトリクスを提供する。
package metrics
