// Package engine provides the resource indexing engine.
//
// The engine orchestrates one pass over a resource: it always emits the
// synthetic _id and _lastUpdated entries, then evaluates every
// catalogued search parameter definition for the resource's type,
// routing each reached value to the extractor matching the definition's
// kind and appending the results to the matching bucket.
package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	si "github.com/gofhir/searchindex"
	"github.com/gofhir/searchindex/extract"
	"github.com/gofhir/searchindex/pathexpr"
	"github.com/gofhir/searchindex/registry"
)

// Synthetic parameter names emitted for every resource.
const (
	ParamID          = "_id"
	ParamLastUpdated = "_lastUpdated"
)

// Engine indexes resources against a search parameter registry.
// It holds only immutable state and an atomic metrics sink, so one
// Engine may index any number of resources concurrently.
type Engine struct {
	registry *registry.Registry
	options  *si.Options
	metrics  *si.Metrics
}

// New creates an Engine over the given registry.
func New(reg *registry.Registry, opts ...si.Option) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("engine: registry must not be nil")
	}

	options := si.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Engine{
		registry: reg,
		options:  options,
		metrics:  options.Metrics,
	}, nil
}

// Metrics returns the engine's metrics sink.
func (e *Engine) Metrics() *si.Metrics {
	return e.metrics
}

// ParseResource parses resource JSON into the document model the engine
// walks. Numbers are decoded as json.Number so decimal magnitudes keep
// their literal precision.
func ParseResource(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var resource map[string]any
	if err := dec.Decode(&resource); err != nil {
		return nil, fmt.Errorf("failed to parse resource: %w", err)
	}
	return resource, nil
}

// IndexJSON parses and indexes resource JSON.
func (e *Engine) IndexJSON(data []byte) (*si.ResourceIndices, error) {
	resource, err := ParseResource(data)
	if err != nil {
		return nil, err
	}
	return e.Index(resource)
}

// Index extracts all search index entries from one parsed resource.
// It returns either a complete ResourceIndices or an error — never a
// partially populated structure. The only error modes are a missing
// resource type or id, and contract violations (record content
// inconsistent with its declared datatype).
func (e *Engine) Index(resource map[string]any) (*si.ResourceIndices, error) {
	start := time.Now()
	indices, err := e.index(resource)
	e.metrics.RecordIndexing(time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	return indices, nil
}

func (e *Engine) index(resource map[string]any) (*si.ResourceIndices, error) {
	resourceType, _ := resource["resourceType"].(string)
	if resourceType == "" {
		return nil, si.ErrNoResourceType
	}
	id, _ := resource["id"].(string)
	if id == "" {
		return nil, si.ErrNoResourceID
	}

	out := &si.ResourceIndices{
		ResourceType: resourceType,
		ResourceID:   id,
	}

	e.appendSyntheticID(out, resourceType, id)
	if err := e.appendSyntheticLastUpdated(out, resource, resourceType); err != nil {
		return nil, e.stamp(resourceType, err)
	}

	for _, def := range e.registry.DefinitionsFor(resourceType) {
		if err := e.apply(resource, def, out); err != nil {
			return nil, e.stamp(resourceType, err)
		}
	}

	return out, nil
}

// appendSyntheticID emits the _id token entry present on every result.
func (e *Engine) appendSyntheticID(out *si.ResourceIndices, resourceType, id string) {
	out.TokenIndices = append(out.TokenIndices, si.TokenIndex{
		Name: ParamID,
		Path: resourceType + ".id",
		Code: id,
	})
	e.metrics.RecordEntry(si.KindToken)
}

// appendSyntheticLastUpdated emits the _lastUpdated date entry when the
// resource carries a meta.lastUpdated timestamp.
func (e *Engine) appendSyntheticLastUpdated(out *si.ResourceIndices, resource map[string]any, resourceType string) error {
	meta, ok := resource["meta"].(map[string]any)
	if !ok {
		return nil
	}
	lastUpdated, ok := meta["lastUpdated"].(string)
	if !ok || lastUpdated == "" {
		return nil
	}

	entry, ok, err := extract.Date(ParamLastUpdated, resourceType+".meta.lastUpdated", lastUpdated, e.options.Timezone)
	if err != nil {
		return err
	}
	if ok {
		out.DateIndices = append(out.DateIndices, entry)
		e.metrics.RecordEntry(si.KindDate)
	}
	return nil
}

// apply evaluates one definition's path and routes every reached value
// through the extractor for the definition's kind.
func (e *Engine) apply(resource map[string]any, def registry.ParamDef, out *si.ResourceIndices) error {
	if !def.Kind.IsValid() || !pathexpr.Supported(def.Path) {
		// Malformed catalogue entry: skip it, keep indexing.
		e.metrics.RecordDefinitionSkipped()
		return nil
	}

	return pathexpr.Evaluate(resource, def.Path, func(value any, path string) error {
		switch def.Kind {
		case si.KindString:
			if entry, ok := extract.String(def.Name, path, value, e.options.MaxStringLength); ok {
				out.StringIndices = append(out.StringIndices, entry)
				e.metrics.RecordEntry(si.KindString)
			} else {
				e.metrics.RecordDecline()
			}

		case si.KindToken:
			entries := extract.Token(def.Name, path, value)
			if len(entries) == 0 {
				e.metrics.RecordDecline()
			}
			for _, entry := range entries {
				out.TokenIndices = append(out.TokenIndices, entry)
				e.metrics.RecordEntry(si.KindToken)
			}

		case si.KindReference:
			entry, ok, flagged := extract.Reference(def.Name, path, value)
			switch {
			case ok:
				out.ReferenceIndices = append(out.ReferenceIndices, entry)
				e.metrics.RecordEntry(si.KindReference)
			case flagged:
				e.metrics.RecordReferenceDecline()
			default:
				e.metrics.RecordDecline()
			}

		case si.KindQuantity:
			entry, ok, err := extract.Quantity(def.Name, path, value)
			if err != nil {
				return err
			}
			if ok {
				out.QuantityIndices = append(out.QuantityIndices, entry)
				e.metrics.RecordEntry(si.KindQuantity)
			} else {
				e.metrics.RecordDecline()
			}

		case si.KindNumber:
			entries, err := extract.Number(def.Name, path, value)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				e.metrics.RecordDecline()
			}
			for _, entry := range entries {
				out.NumberIndices = append(out.NumberIndices, entry)
				e.metrics.RecordEntry(si.KindNumber)
			}

		case si.KindDate:
			entry, ok, err := extract.Date(def.Name, path, value, e.options.Timezone)
			if err != nil {
				return err
			}
			if ok {
				out.DateIndices = append(out.DateIndices, entry)
				e.metrics.RecordEntry(si.KindDate)
			} else {
				e.metrics.RecordDecline()
			}

		case si.KindURI:
			if entry, ok := extract.URI(def.Name, path, value); ok {
				out.URIIndices = append(out.URIIndices, entry)
				e.metrics.RecordEntry(si.KindURI)
			} else {
				e.metrics.RecordDecline()
			}
		}

		return nil
	})
}

// stamp fills the resource type into contract errors bubbling out of
// extraction.
func (e *Engine) stamp(resourceType string, err error) error {
	var ce *si.ContractError
	if errors.As(err, &ce) && ce.ResourceType == "" {
		ce.ResourceType = resourceType
	}
	return err
}
