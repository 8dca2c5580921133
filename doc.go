// Package searchindex extracts typed search index entries from FHIR
// resources.
//
// Given one parsed resource and a catalogue of search parameter
// definitions for its resource type, the engine walks the resource's
// element graph, evaluates each definition's path expression, and emits
// typed index entries (string, token, reference, quantity, number,
// date, uri) that a storage layer can index without re-parsing the
// resource at query time.
//
// # Quick Start
//
//	import (
//	    "github.com/gofhir/searchindex/engine"
//	    "github.com/gofhir/searchindex/registry"
//	)
//
//	reg, err := registry.Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := engine.New(reg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	indices, err := eng.IndexJSON(resourceJSON)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, tok := range indices.TokenIndices {
//	    fmt.Println(tok.Name, tok.System, tok.Code)
//	}
//
// # Design
//
//   - Pure: Index is a deterministic function of the resource and the
//     catalogue. No caching, no I/O, no shared mutable state.
//   - Concurrent: one engine may index any number of resources from
//     any number of goroutines with no coordination.
//   - Exact decimals: number and quantity magnitudes are kept as
//     arbitrary-precision decimals end to end, never binary floats.
//   - Tolerant: absent elements and value shapes a parameter kind does
//     not handle are skipped silently. Only internally inconsistent
//     records fail, with a ContractError.
package searchindex
