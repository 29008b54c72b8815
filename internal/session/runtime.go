package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// RuntimeInfo describes the native inference runtime shared library resolved
// for this process.
type RuntimeInfo struct {
	LibraryPath string
	Version     string
	Initialized bool
}

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

var (
	initOnce sync.Once
	initInfo RuntimeInfo
	errInit  error
)

// ensureInitialized resolves the native runtime exactly once per process.
// Concurrent first callers block on the single attempt. A failure (or a
// panic inside native-library discovery) is downgraded to a warning: the
// session attempt still proceeds and carries its own error path, and the
// guard stays usable for later callers.
func ensureInitialized(libraryPath string) RuntimeInfo {
	initOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				errInit = fmt.Errorf("native runtime initialization panicked: %v", r)
			}
		}()

		info, err := DetectRuntime(libraryPath)
		if err != nil {
			errInit = err
			return
		}

		info.Initialized = true
		initInfo = info
	})

	if errInit != nil {
		slog.Warn("onnx runtime initialization failed", "error", errInit)
		return RuntimeInfo{}
	}

	return initInfo
}

// DetectRuntime locates the ONNX Runtime shared library. An explicit path
// wins, then the ONNXSESSION_ORT_LIB and ORT_LIBRARY_PATH environment
// variables, then well-known system locations.
func DetectRuntime(explicit string) (RuntimeInfo, error) {
	path := explicit
	if path == "" {
		path = os.Getenv("ONNXSESSION_ORT_LIB")
	}

	if path == "" {
		path = os.Getenv("ORT_LIBRARY_PATH")
	}

	if path == "" {
		candidates := []string{
			"/usr/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"/opt/homebrew/lib/libonnxruntime.dylib",
			"C:/onnxruntime/lib/onnxruntime.dll",
		}
		for _, c := range candidates {
			_, err := os.Stat(c)
			if err == nil {
				path = c
				break
			}
		}
	}

	if path == "" {
		return RuntimeInfo{LibraryPath: "not found", Version: "unknown"}, errors.New("unable to detect ONNX Runtime library path")
	}

	_, err := os.Stat(path)
	if err != nil {
		return RuntimeInfo{LibraryPath: path, Version: "unknown"}, fmt.Errorf("onnx runtime library path check failed: %w", err)
	}

	version := os.Getenv("ORT_VERSION")
	if version == "" {
		version = inferVersionFromPath(path)
	}

	if version == "" {
		version = "unknown"
	}

	return RuntimeInfo{LibraryPath: path, Version: version}, nil
}

func inferVersionFromPath(path string) string {
	name := filepath.Base(path)
	if m := versionPattern.FindStringSubmatch(name); len(m) == 2 {
		return m[1]
	}

	return ""
}
