package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	si "github.com/gofhir/searchindex"
	"github.com/gofhir/searchindex/pathexpr"
)

// LoadStats contains statistics about a bundle load.
type LoadStats struct {
	// Parameters is the number of SearchParameter resources seen.
	Parameters int

	// Definitions is the number of ParamDefs produced (one per usable
	// base/expression component pair).
	Definitions int

	// Skipped is the number of base/expression pairs dropped because
	// the kind is unsupported or no expression component is a plain
	// dotted path.
	Skipped int
}

// bundle is the subset of a FHIR Bundle the loader reads.
type bundle struct {
	ResourceType string `json:"resourceType"`
	Type         string `json:"type"`
	Entry        []struct {
		Resource json.RawMessage `json:"resource"`
	} `json:"entry"`
}

// searchParameter is the subset of a SearchParameter resource the
// loader reads.
type searchParameter struct {
	ResourceType string   `json:"resourceType"`
	URL          string   `json:"url"`
	Code         string   `json:"code"`
	Base         []string `json:"base"`
	Type         string   `json:"type"`
	Expression   string   `json:"expression"`
}

// Loader loads search parameter bundles into a Registry.
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a Loader logging through log.
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{log: log}
}

// LoadBundle reads a FHIR Bundle of SearchParameter resources and
// builds a Registry from it. Multi-base parameters contribute one
// definition per base resource type; union expressions are split on
// "|" and only the components rooted at that base are kept. Parameter
// names are lowercase-flattened. Malformed or unsupported entries are
// skipped with a log line, never fatal.
func (l *Loader) LoadBundle(r io.Reader) (*Registry, *LoadStats, error) {
	var b bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	if b.ResourceType != "Bundle" {
		return nil, nil, fmt.Errorf("expected a Bundle, got %q", b.ResourceType)
	}

	stats := &LoadStats{}
	defs := make(map[string][]ParamDef)

	for _, entry := range b.Entry {
		var sp searchParameter
		if err := json.Unmarshal(entry.Resource, &sp); err != nil {
			l.log.Debug().Err(err).Msg("skipping unreadable bundle entry")
			continue
		}
		if sp.ResourceType != "SearchParameter" || sp.Code == "" {
			continue
		}
		stats.Parameters++

		kind := si.IndexKind(sp.Type)
		if !kind.IsValid() {
			l.log.Debug().
				Str("parameter", sp.Code).
				Str("type", sp.Type).
				Msg("skipping parameter with unsupported type")
			stats.Skipped += len(sp.Base)
			continue
		}

		name := strings.ToLower(sp.Code)

		for _, base := range sp.Base {
			paths := expressionPaths(sp.Expression, base)
			if len(paths) == 0 {
				l.log.Debug().
					Str("parameter", sp.Code).
					Str("base", base).
					Str("expression", sp.Expression).
					Msg("skipping parameter with no plain path for base")
				stats.Skipped++
				continue
			}
			for _, path := range paths {
				defs[base] = append(defs[base], ParamDef{
					Name: name,
					Kind: kind,
					Path: path,
				})
				stats.Definitions++
			}
		}
	}

	l.log.Info().
		Int("parameters", stats.Parameters).
		Int("definitions", stats.Definitions).
		Int("skipped", stats.Skipped).
		Msg("loaded search parameter bundle")

	return New(defs), stats, nil
}

// LoadBundleFile loads a bundle from a file path.
func (l *Loader) LoadBundleFile(path string) (*Registry, *LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()
	return l.LoadBundle(f)
}

// expressionPaths splits a (possibly union) search parameter expression
// and returns the components that are plain dotted paths rooted at
// base, in declaration order.
func expressionPaths(expression, base string) []string {
	var paths []string
	for _, component := range strings.Split(expression, "|") {
		component = strings.TrimSpace(component)
		if !strings.HasPrefix(component, base+".") {
			continue
		}
		if !pathexpr.Supported(component) {
			continue
		}
		paths = append(paths, component)
	}
	return paths
}
