package registry

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gofhir/searchindex/specs"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the Registry built from the embedded search parameter
// bundle. It is built once on first use and shared, read-only, by all
// callers.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		data, err := specs.SearchParameters()
		if err != nil {
			defaultErr = fmt.Errorf("failed to read embedded bundle: %w", err)
			return
		}
		loader := NewLoader(zerolog.Nop())
		defaultRegistry, _, defaultErr = loader.LoadBundle(bytes.NewReader(data))
	})
	return defaultRegistry, defaultErr
}
