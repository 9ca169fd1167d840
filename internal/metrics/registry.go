package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry and the file it is written to.
type Recorder struct {
	*Metrics
	registry *prometheus.Registry
	path     string
}

// NewRecorder creates a registry for one run. path is where Flush writes.
func NewRecorder(path string) *Recorder {
	reg := prometheus.NewRegistry()
	return &Recorder{Metrics: New(reg), registry: reg, path: path}
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Flush writes the registry to the metrics file. The file is replaced
// atomically.
func (r *Recorder) Flush() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(r.path, r.registry)
}
