// Package pathexpr evaluates dotted search-parameter path expressions
// against parsed FHIR resources.
//
// An expression like "Invoice.participant.role" is walked segment by
// segment over a map[string]any document. Repeated elements fan out
// (one branch per repetition), choice elements resolve to whichever
// concrete variant is present ("value" matches "valueQuantity"), and
// absent elements simply yield nothing. The walk never mutates the
// resource.
package pathexpr

import (
	"strings"

	"github.com/gofhir/searchindex/pool"
)

// VisitFunc is called for each value an expression reaches, together
// with the concrete dotted element path to that value (choice segments
// appear with their resolved suffix, e.g. "Observation.valueQuantity").
// Return an error to stop the walk with that error.
type VisitFunc func(value any, path string) error

// Evaluate walks expr against resource, calling visit for each reached
// value in document order. A resource whose type does not match the
// expression's root segment yields no values. Absence at any segment is
// normal and yields nothing; the only returned errors are those of the
// visitor itself.
func Evaluate(resource map[string]any, expr string, visit VisitFunc) error {
	if resource == nil || visit == nil {
		return nil
	}

	segs := strings.Split(expr, ".")
	if len(segs) < 2 {
		return nil
	}

	resourceType, _ := resource["resourceType"].(string)
	if resourceType == "" || segs[0] != resourceType {
		return nil
	}

	pb := pool.AcquirePathBuilder()
	defer pb.Release()
	pb.WriteString(resourceType)

	return walk(resource, segs[1:], pb, visit)
}

// walk descends one segment at a time, fanning out over arrays.
func walk(value any, segs []string, pb *pool.PathBuilder, visit VisitFunc) error {
	if value == nil {
		return nil
	}

	// Repeated elements: one branch per repetition, same path.
	if arr, ok := value.([]any); ok {
		for _, item := range arr {
			if err := walk(item, segs, pb, visit); err != nil {
				return err
			}
		}
		return nil
	}

	if len(segs) == 0 {
		return visit(value, pb.String())
	}

	obj, ok := value.(map[string]any)
	if !ok {
		// Primitive with segments left to consume: absent.
		return nil
	}

	key, child := resolveKey(obj, segs[0])
	if child == nil {
		return nil
	}

	mark := pb.Len()
	pb.AppendWithDot(key)
	err := walk(child, segs[1:], pb, visit)
	pb.Truncate(mark)
	return err
}

// Supported reports whether expr is a plain dotted path this evaluator
// handles: identifier segments joined by dots, at least a resource type
// and one element. Function calls, filters, casts and unions are not
// supported here; callers splitting union expressions should test each
// component separately.
func Supported(expr string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false
	}

	segs := strings.Split(expr, ".")
	if len(segs) < 2 {
		return false
	}

	for _, seg := range segs {
		if !isIdentifier(seg) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
