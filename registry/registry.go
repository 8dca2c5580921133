// Package registry holds the catalogue of search parameter definitions
// the indexing engine evaluates.
//
// A Registry is keyed by resource type and immutable once built: it may
// be shared by any number of concurrent indexing calls without
// synchronization. Definitions keep the order they were loaded in,
// which fixes the order of emitted index entries.
package registry

import (
	"sort"

	si "github.com/gofhir/searchindex"
)

// ParamDef is one search parameter definition: what to call the index
// entries, how to compare them, and where in the resource to look.
type ParamDef struct {
	// Name is the lowercase-flattened parameter name, e.g. "totalgross".
	Name string

	// Kind selects the extractor and the output bucket.
	Kind si.IndexKind

	// Path is the dotted path expression rooted at the resource type,
	// e.g. "Invoice.totalGross".
	Path string
}

// Registry is an immutable catalogue of ParamDefs keyed by resource
// type name.
type Registry struct {
	defs map[string][]ParamDef
}

// New builds a Registry from a resource-type keyed definition map.
// The input is copied; later mutation of defs does not affect the
// Registry.
func New(defs map[string][]ParamDef) *Registry {
	copied := make(map[string][]ParamDef, len(defs))
	for resourceType, list := range defs {
		copied[resourceType] = append([]ParamDef(nil), list...)
	}
	return &Registry{defs: copied}
}

// DefinitionsFor returns the definitions for a resource type in load
// order. Unknown types yield nil, which is not an error: resources of
// uncatalogued types still get their synthetic entries.
func (r *Registry) DefinitionsFor(resourceType string) []ParamDef {
	return r.defs[resourceType]
}

// ResourceTypes returns the catalogued resource type names, sorted.
func (r *Registry) ResourceTypes() []string {
	types := make([]string, 0, len(r.defs))
	for resourceType := range r.defs {
		types = append(types, resourceType)
	}
	sort.Strings(types)
	return types
}

// Len returns the total number of definitions across all types.
func (r *Registry) Len() int {
	n := 0
	for _, list := range r.defs {
		n += len(list)
	}
	return n
}
