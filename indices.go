package searchindex

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndexKind identifies the comparison semantics of a search index entry.
// It maps to SearchParameter.type in FHIR.
type IndexKind string

// Supported index kinds.
const (
	KindString    IndexKind = "string"
	KindToken     IndexKind = "token"
	KindReference IndexKind = "reference"
	KindQuantity  IndexKind = "quantity"
	KindNumber    IndexKind = "number"
	KindDate      IndexKind = "date"
	KindURI       IndexKind = "uri"
)

// IsValid returns true if this is a kind the indexing engine supports.
// Composite and special parameters are not indexed.
func (k IndexKind) IsValid() bool {
	switch k {
	case KindString, KindToken, KindReference, KindQuantity, KindNumber, KindDate, KindURI:
		return true
	default:
		return false
	}
}

// String returns the kind string.
func (k IndexKind) String() string {
	return string(k)
}

// DatePrecision is the stated precision of an indexed date value.
// The precision determines how wide the [From, To] span of a DateIndex is.
type DatePrecision string

// Date precisions, coarsest first.
const (
	PrecisionYear   DatePrecision = "year"
	PrecisionMonth  DatePrecision = "month"
	PrecisionDay    DatePrecision = "day"
	PrecisionSecond DatePrecision = "second"
)

// StringIndex is an index entry for string search parameters.
type StringIndex struct {
	// Name is the lowercase search parameter name.
	Name string `json:"name"`

	// Path is the dotted element path the value came from, e.g. "Patient.name".
	Path string `json:"path"`

	// Value is the normalized textual content.
	Value string `json:"value"`
}

// TokenIndex is an index entry for token search parameters.
type TokenIndex struct {
	Name string `json:"name"`
	Path string `json:"path"`

	// System is the coding or identifier system. Empty for plain codes.
	System string `json:"system,omitempty"`

	// Code is the coded value.
	Code string `json:"code"`
}

// ReferenceIndex is an index entry for reference search parameters.
// Value is the literal reference string, e.g. "Patient/example".
type ReferenceIndex struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// QuantityIndex is an index entry for quantity search parameters.
type QuantityIndex struct {
	Name string `json:"name"`
	Path string `json:"path"`

	// System is the unit system, e.g. "http://unitsofmeasure.org" or
	// "urn:iso:std:iso:4217" for monetary amounts.
	System string `json:"system"`

	// Unit is the unit code, e.g. "mg" or a currency code like "EUR".
	Unit string `json:"unit"`

	// Value is the exact decimal magnitude.
	Value decimal.Decimal `json:"value"`
}

// NumberIndex is an index entry for number search parameters.
// Value carries the exact decimal, never a binary float.
type NumberIndex struct {
	Name  string          `json:"name"`
	Path  string          `json:"path"`
	Value decimal.Decimal `json:"value"`
}

// DateIndex is an index entry for date search parameters.
// From and To bound the inclusive span implied by the value at its
// stated precision: a bare year covers the whole year.
type DateIndex struct {
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	From      time.Time     `json:"from"`
	To        time.Time     `json:"to"`
	Precision DatePrecision `json:"precision"`
}

// URIIndex is an index entry for uri search parameters.
type URIIndex struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// ResourceIndices holds every index entry extracted from one resource.
// It is created fresh per indexing call, fully populated before it is
// returned, and never mutated afterwards. Entry order follows catalogue
// definition order, then document order within a definition.
type ResourceIndices struct {
	// ResourceType is the type of the indexed resource, e.g. "Invoice".
	ResourceType string `json:"resourceType"`

	// ResourceID is the logical id of the indexed resource.
	ResourceID string `json:"resourceId"`

	StringIndices    []StringIndex    `json:"stringIndices,omitempty"`
	NumberIndices    []NumberIndex    `json:"numberIndices,omitempty"`
	DateIndices      []DateIndex      `json:"dateIndices,omitempty"`
	URIIndices       []URIIndex       `json:"uriIndices,omitempty"`
	TokenIndices     []TokenIndex     `json:"tokenIndices,omitempty"`
	QuantityIndices  []QuantityIndex  `json:"quantityIndices,omitempty"`
	ReferenceIndices []ReferenceIndex `json:"referenceIndices,omitempty"`
}

// Len returns the total number of entries across all buckets.
func (r *ResourceIndices) Len() int {
	return len(r.StringIndices) +
		len(r.NumberIndices) +
		len(r.DateIndices) +
		len(r.URIIndices) +
		len(r.TokenIndices) +
		len(r.QuantityIndices) +
		len(r.ReferenceIndices)
}
