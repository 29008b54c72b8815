// Package doctor provides environment preflight checks for onnxsession.
package doctor

import (
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// MinORTVersion is the oldest ONNX Runtime release the session layer is
// exercised against.
const MinORTVersion = "1.17.0"

// RuntimeFunc locates the ONNX Runtime shared library and returns its path
// and version string, or an error when no library can be found.
type RuntimeFunc func() (path string, version string, err error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// DetectRuntime resolves the ONNX Runtime shared library.
	DetectRuntime RuntimeFunc
	// ModelFiles is the list of model file paths to verify on disk.
	ModelFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- ONNX Runtime shared library --------------------------------------
	if cfg.DetectRuntime == nil {
		fmt.Fprintf(w, "%s onnx runtime library: skipped\n", PassMark)
	} else {
		path, version, err := cfg.DetectRuntime()
		if err != nil {
			res.fail(fmt.Sprintf("onnx runtime library: %v", err))
			fmt.Fprintf(w, "%s onnx runtime library: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s onnx runtime library: %s\n", PassMark, path)

			if verErr := checkORTVersion(version); verErr != nil {
				res.fail(fmt.Sprintf("onnx runtime version: %v", verErr))
				fmt.Fprintf(w, "%s onnx runtime version %s: %v\n", FailMark, version, verErr)
			} else {
				fmt.Fprintf(w, "%s onnx runtime version: %s\n", PassMark, version)
			}
		}
	}

	// ---- model files ------------------------------------------------------
	for _, path := range cfg.ModelFiles {
		if _, err := os.Stat(path); err != nil {
			res.fail(fmt.Sprintf("model file %q: %v", path, err))
			fmt.Fprintf(w, "%s model file %s: not found\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s model file: %s\n", PassMark, path)
		}
	}

	return res
}

// checkORTVersion returns an error if ver is older than MinORTVersion. An
// "unknown" version passes: filename-based detection often cannot tell.
func checkORTVersion(ver string) error {
	if ver == "" || ver == "unknown" {
		return nil
	}

	parsed, err := semver.NewVersion(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}

	minimum := semver.MustParse(MinORTVersion)
	if parsed.LessThan(minimum) {
		return fmt.Errorf("requires ONNX Runtime >=%s, got %s", MinORTVersion, ver)
	}

	return nil
}
