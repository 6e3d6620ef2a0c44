package processing

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrScriptTimeout is returned when the raster script exceeds its time budget.
var ErrScriptTimeout = errors.New("processing script timed out")

// Result holds the two output paths the script reports via its marker lines.
type Result struct {
	GeoTIFFPath string
	PreviewPath string
}

// ScriptRunner invokes the external raster-processing script. The contract is
// fixed: three positional arguments (image path, index type, geometry file path),
// exit code zero on success, and two marker lines "geotiff:<path>" and
// "preview:<path>" on stdout naming the outputs.
type ScriptRunner struct {
	PythonBin  string
	ScriptPath string
	Timeout    time.Duration
}

// NewScriptRunner creates a ScriptRunner with the given interpreter, script and timeout.
func NewScriptRunner(pythonBin, scriptPath string, timeout time.Duration) *ScriptRunner {
	return &ScriptRunner{PythonBin: pythonBin, ScriptPath: scriptPath, Timeout: timeout}
}

// Run executes the script for one image and geometry. The process is killed when
// the timeout elapses or the caller's context is cancelled.
func (r *ScriptRunner) Run(ctx context.Context, imagePath, indexType, geometryPath string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.PythonBin, r.ScriptPath, imagePath, indexType, geometryPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, ErrScriptTimeout
	}
	if err != nil {
		return nil, errors.Wrapf(err, "processing script failed: %s", strings.TrimSpace(stderr.String()))
	}

	result, err := ParseMarkers(stdout.String())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ParseMarkers extracts the geotiff/preview output paths from the script's stdout.
// Both markers must be present; the last occurrence of each wins.
func ParseMarkers(output string) (*Result, error) {
	var result Result
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "geotiff:"):
			result.GeoTIFFPath = strings.TrimSpace(strings.TrimPrefix(line, "geotiff:"))
		case strings.HasPrefix(line, "preview:"):
			result.PreviewPath = strings.TrimSpace(strings.TrimPrefix(line, "preview:"))
		}
	}
	if result.GeoTIFFPath == "" || result.PreviewPath == "" {
		return nil, errors.Errorf("script output missing markers (geotiff=%q, preview=%q)",
			result.GeoTIFFPath, result.PreviewPath)
	}
	return &result, nil
}
