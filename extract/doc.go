// Package extract turns single evaluated element values into typed
// search index entries.
//
// There is one extractor per index kind. Each is a pure function over
// one value: it either emits entries, or declines when the value's
// shape is not one the kind handles. Declining is normal — search
// parameter definitions routinely apply to only some variants of a
// polymorphic element. Extractors fail only on contract violations:
// values whose content contradicts the datatype the resource parser
// already accepted, such as non-numeric text in a decimal element.
package extract
