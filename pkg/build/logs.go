package build

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/portman/pkg/model"
)

// LogsRecorder records the outcome of each build for later inspection.
type LogsRecorder interface {
	RecordBuild(spec model.PackageSpec, succeeded bool, elapsed time.Duration)
}

// NullLogsRecorder discards all records. The upgrade flow uses it: per-action
// outcomes surface through the install summary instead.
type NullLogsRecorder struct{}

// RecordBuild discards the record.
func (NullLogsRecorder) RecordBuild(_ model.PackageSpec, _ bool, _ time.Duration) {}

// FileLogsRecorder appends one line per build to a log file.
type FileLogsRecorder struct {
	path string
}

// NewFileLogsRecorder creates a recorder writing to path.
func NewFileLogsRecorder(path string) *FileLogsRecorder {
	return &FileLogsRecorder{path: path}
}

// RecordBuild appends the outcome. Failures to write are swallowed; build
// logs must never fail a build.
func (r *FileLogsRecorder) RecordBuild(spec model.PackageSpec, succeeded bool, elapsed time.Duration) {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return
	}
	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer func() { _ = file.Close() }()

	outcome := "ok"
	if !succeeded {
		outcome = "failed"
	}
	_, _ = fmt.Fprintf(file, "%s %s %s %s\n",
		time.Now().Format(time.RFC3339), spec, outcome, elapsed.Round(time.Millisecond))
}
