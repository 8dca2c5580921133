package extract

import (
	"strings"
	"time"

	si "github.com/gofhir/searchindex"
)

// String extracts a string index entry from a plain string or a
// HumanName/Address shaped composite, whose textual sub-parts are
// joined with single spaces. maxLen > 0 truncates the stored value to
// that many runes. Declines empty results.
func String(name, path string, value any, maxLen int) (si.StringIndex, bool) {
	var text string

	switch v := value.(type) {
	case string:
		text = strings.Join(strings.Fields(v), " ")
	case map[string]any:
		switch {
		case isHumanNameShaped(v):
			text = strings.Join(humanNameParts(v), " ")
		case isAddressShaped(v):
			text = strings.Join(addressParts(v), " ")
		default:
			return si.StringIndex{}, false
		}
	default:
		return si.StringIndex{}, false
	}

	if text == "" {
		return si.StringIndex{}, false
	}
	if maxLen > 0 {
		if runes := []rune(text); len(runes) > maxLen {
			text = string(runes[:maxLen])
		}
	}

	return si.StringIndex{Name: name, Path: path, Value: text}, true
}

// Token extracts token index entries. Codings and Identifiers carry
// their system; ContactPoint values, booleans and bare codes do not. A
// CodeableConcept fans out into one entry per contained coding. An
// empty result means the value carries nothing code-bearing.
func Token(name, path string, value any) []si.TokenIndex {
	switch v := value.(type) {
	case bool:
		code := "false"
		if v {
			code = "true"
		}
		return []si.TokenIndex{{Name: name, Path: path, Code: code}}

	case string:
		if v == "" {
			return nil
		}
		return []si.TokenIndex{{Name: name, Path: path, Code: v}}

	case map[string]any:
		// CodeableConcept: one token per coding.
		if _, ok := v["coding"]; ok {
			codings := decodeCodeableConcept(v)
			entries := make([]si.TokenIndex, 0, len(codings))
			for _, c := range codings {
				entries = append(entries, si.TokenIndex{
					Name:   name,
					Path:   path,
					System: c.system,
					Code:   c.code,
				})
			}
			return entries
		}

		// Coding: system + code.
		if c, ok := decodeCoding(v); ok {
			return []si.TokenIndex{{Name: name, Path: path, System: c.system, Code: c.code}}
		}

		// Identifier or ContactPoint: both carry a value, told apart by
		// the system. ContactPoint systems are a closed code set,
		// Identifier systems are URIs.
		if val := stringField(v, "value"); val != "" {
			if contactPointSystems[stringField(v, "system")] {
				return []si.TokenIndex{{Name: name, Path: path, Code: val}}
			}
			return []si.TokenIndex{{
				Name:   name,
				Path:   path,
				System: stringField(v, "system"),
				Code:   val,
			}}
		}

		return nil

	default:
		return nil
	}
}

// Reference extracts a reference index entry carrying the literal
// reference string. The second result reports whether an entry was
// emitted; the third reports a reference-shaped value that could not be
// rendered as a literal (a contained "#" fragment) — flagged for
// metrics but never fatal.
func Reference(name, path string, value any) (si.ReferenceIndex, bool, bool) {
	var ref string

	switch v := value.(type) {
	case string:
		// Canonical references arrive as plain strings.
		ref = v
	case map[string]any:
		ref = stringField(v, "reference")
	default:
		return si.ReferenceIndex{}, false, false
	}

	if ref == "" {
		return si.ReferenceIndex{}, false, false
	}
	if strings.HasPrefix(ref, "#") {
		return si.ReferenceIndex{}, false, true
	}

	return si.ReferenceIndex{Name: name, Path: path, Value: ref}, true, false
}

// Quantity extracts a quantity index entry from a Quantity or Money
// shaped value. Money is stamped with the ISO 4217 system and its
// currency code as the unit; a Quantity without an explicit system
// defaults to UCUM. The magnitude keeps its exact decimal precision.
func Quantity(name, path string, value any) (si.QuantityIndex, bool, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return si.QuantityIndex{}, false, nil
	}

	if isMoneyShaped(obj) {
		m, ok, err := decodeMoney(path, obj)
		if err != nil || !ok {
			return si.QuantityIndex{}, false, err
		}
		return si.QuantityIndex{
			Name:   name,
			Path:   path,
			System: CurrencySystem,
			Unit:   m.currency,
			Value:  m.value,
		}, true, nil
	}

	q, ok, err := decodeQuantity(path, obj)
	if err != nil || !ok {
		return si.QuantityIndex{}, false, err
	}

	system := q.system
	if system == "" {
		system = UCUMSystem
	}
	unit := q.code
	if unit == "" {
		unit = q.unit
	}

	return si.QuantityIndex{
		Name:   name,
		Path:   path,
		System: system,
		Unit:   unit,
		Value:  q.value,
	}, true, nil
}

// Number extracts number index entries from a plain decimal or integer,
// from a quantity's bare magnitude, or from a Range. A Range expands
// into one entry per present bound, each path-qualified to its bound
// element. An empty result means the shape is not numeric.
func Number(name, path string, value any) ([]si.NumberIndex, error) {
	switch v := value.(type) {
	case map[string]any:
		if isRangeShaped(v) {
			r, ok, err := decodeRange(path, v)
			if err != nil || !ok {
				return nil, err
			}
			entries := make([]si.NumberIndex, 0, 2)
			if r.low != nil {
				entries = append(entries, si.NumberIndex{Name: name, Path: path + ".low", Value: r.low.value})
			}
			if r.high != nil {
				entries = append(entries, si.NumberIndex{Name: name, Path: path + ".high", Value: r.high.value})
			}
			return entries, nil
		}

		// A quantity's bare magnitude when the parameter is a number.
		q, ok, err := decodeQuantity(path, v)
		if err != nil || !ok {
			return nil, err
		}
		return []si.NumberIndex{{Name: name, Path: path, Value: q.value}}, nil

	case bool, nil:
		return nil, nil

	default:
		d, err := toDecimal(path, v)
		if err != nil {
			return nil, err
		}
		return []si.NumberIndex{{Name: name, Path: path, Value: d}}, nil
	}
}

// Date extracts a date index entry from a date, dateTime or instant
// string, or from a Period. Partial precisions span their whole period;
// Period bounds map to the span directly at second precision, with a
// missing bound falling back to the other. Unparseable text in a date
// position is a contract violation.
func Date(name, path string, value any, loc *time.Location) (si.DateIndex, bool, error) {
	switch v := value.(type) {
	case string:
		dv, err := parseDate(v, loc)
		if err != nil {
			return si.DateIndex{}, false, si.NewContractError(path, "unparseable date content", err)
		}
		return si.DateIndex{
			Name:      name,
			Path:      path,
			From:      dv.from,
			To:        dv.to,
			Precision: dv.precision,
		}, true, nil

	case map[string]any:
		if !isPeriodShaped(v) {
			return si.DateIndex{}, false, nil
		}
		p, ok := decodePeriod(v)
		if !ok {
			return si.DateIndex{}, false, nil
		}

		entry := si.DateIndex{Name: name, Path: path, Precision: si.PrecisionSecond}
		var start, end dateValue
		var err error

		if p.start != "" {
			if start, err = parseDate(p.start, loc); err != nil {
				return si.DateIndex{}, false, si.NewContractError(path+".start", "unparseable date content", err)
			}
		}
		if p.end != "" {
			if end, err = parseDate(p.end, loc); err != nil {
				return si.DateIndex{}, false, si.NewContractError(path+".end", "unparseable date content", err)
			}
		}

		switch {
		case p.start != "" && p.end != "":
			entry.From, entry.To = start.from, end.to
		case p.start != "":
			entry.From, entry.To = start.from, start.to
		default:
			entry.From, entry.To = end.from, end.to
		}
		return entry, true, nil

	default:
		return si.DateIndex{}, false, nil
	}
}

// URI extracts a uri index entry from a plain uri, url or canonical
// string. Declines everything else.
func URI(name, path string, value any) (si.URIIndex, bool) {
	s, ok := value.(string)
	if !ok {
		return si.URIIndex{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return si.URIIndex{}, false
	}
	return si.URIIndex{Name: name, Path: path, Value: s}, true
}
