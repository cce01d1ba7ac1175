package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Static returns a Loader that always yields a copy of vals. Empty values
// are dropped.
func Static(vals map[string]string) Loader {
	return func() (map[string]string, error) {
		out := make(map[string]string, len(vals))
		for k, v := range vals {
			if v != "" {
				out[k] = v
			}
		}
		return out, nil
	}
}

// FileLoader returns a Loader that reads each secret from a file, as
// mounted by Docker or Kubernetes secrets. files maps secret key to path;
// entries with an empty path are skipped. Surrounding whitespace is trimmed.
func FileLoader(files map[string]string) Loader {
	return func() (map[string]string, error) {
		out := make(map[string]string, len(files))
		for k, path := range files {
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
			if err != nil {
				return nil, fmt.Errorf("read secret %s: %w", k, err)
			}
			out[k] = strings.TrimSpace(string(data))
		}
		return out, nil
	}
}

// Chain merges the results of loaders in order; later loaders win. Empty
// values never shadow earlier ones.
func Chain(loaders ...Loader) Loader {
	return func() (map[string]string, error) {
		out := make(map[string]string)
		for _, l := range loaders {
			vals, err := l()
			if err != nil {
				return nil, err
			}
			for k, v := range vals {
				if v != "" {
					out[k] = v
				}
			}
		}
		return out, nil
	}
}
