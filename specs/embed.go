// Package specs provides the embedded default search parameter bundle.
//
// The bundle is a curated subset of the official FHIR R4 search
// parameter registry covering common resource types. Applications
// indexing other types should load the full registry bundle themselves
// and build a Registry from it.
//
// Usage:
//
//	data, err := specs.SearchParameters()
//	if err != nil {
//	    return err
//	}
package specs

import (
	"embed"
)

//go:embed r4/*.json
var r4Specs embed.FS

// SearchParametersFile is the embedded bundle's file name.
const SearchParametersFile = "r4/search-parameters.json"

// SearchParameters returns the embedded R4 search parameter bundle.
func SearchParameters() ([]byte, error) {
	return r4Specs.ReadFile(SearchParametersFile)
}
