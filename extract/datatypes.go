package extract

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	si "github.com/gofhir/searchindex"
)

// Unit systems stamped on quantity entries.
const (
	// UCUMSystem is the default system for units of measure.
	UCUMSystem = "http://unitsofmeasure.org"

	// CurrencySystem is the ISO 4217 currency code system used for
	// monetary amounts.
	CurrencySystem = "urn:iso:std:iso:4217"
)

// Closed decoded forms of the clinical datatypes the extractors accept.
// Decoding from the generic document model happens in exactly one place
// per datatype so every extractor switches over the same shapes.

type coding struct {
	system string
	code   string
}

type quantity struct {
	value  decimal.Decimal
	unit   string
	system string
	code   string
}

type money struct {
	value    decimal.Decimal
	currency string
}

type period struct {
	start string
	end   string
}

// rangeBounds is a FHIR Range: low/high quantities, either optional.
type rangeBounds struct {
	low  *quantity
	high *quantity
}

// contactPointSystems are the allowed ContactPoint.system codes. They
// distinguish a ContactPoint from an Identifier, which carries a URI
// system instead.
var contactPointSystems = map[string]bool{
	"phone": true,
	"fax":   true,
	"email": true,
	"pager": true,
	"url":   true,
	"sms":   true,
	"other": true,
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// toDecimal converts a numeric element value to an exact decimal.
// json.Number and string values are parsed from their literal text so
// precision survives; a float64 (a caller that decoded without
// UseNumber) goes through shortest-representation formatting. Anything
// non-numeric is a contract violation at path.
func toDecimal(path string, v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Decimal{}, si.NewContractError(path, "non-numeric content in numeric element", err)
		}
		return d, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Decimal{}, si.NewContractError(path, "non-numeric content in numeric element", err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.Decimal{}, si.NewContractError(path, "non-numeric value in numeric element", nil)
	}
}

// decodeCoding decodes a Coding-shaped map. Returns false when no code
// is present.
func decodeCoding(obj map[string]any) (coding, bool) {
	c := coding{
		system: stringField(obj, "system"),
		code:   stringField(obj, "code"),
	}
	return c, c.code != ""
}

// decodeCodeableConcept decodes the codings of a CodeableConcept.
// Codings without a code are skipped.
func decodeCodeableConcept(obj map[string]any) []coding {
	raw, ok := obj["coding"].([]any)
	if !ok {
		return nil
	}
	codings := make([]coding, 0, len(raw))
	for _, item := range raw {
		cm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if c, ok := decodeCoding(cm); ok {
			codings = append(codings, c)
		}
	}
	return codings
}

// decodeQuantity decodes a Quantity-shaped map. Returns false when the
// magnitude is absent; errors are contract violations.
func decodeQuantity(path string, obj map[string]any) (quantity, bool, error) {
	raw, ok := obj["value"]
	if !ok || raw == nil {
		return quantity{}, false, nil
	}
	d, err := toDecimal(path+".value", raw)
	if err != nil {
		return quantity{}, false, err
	}
	return quantity{
		value:  d,
		unit:   stringField(obj, "unit"),
		system: stringField(obj, "system"),
		code:   stringField(obj, "code"),
	}, true, nil
}

// decodeMoney decodes a Money-shaped map (value + currency).
func decodeMoney(path string, obj map[string]any) (money, bool, error) {
	raw, ok := obj["value"]
	if !ok || raw == nil {
		return money{}, false, nil
	}
	d, err := toDecimal(path+".value", raw)
	if err != nil {
		return money{}, false, err
	}
	return money{value: d, currency: stringField(obj, "currency")}, true, nil
}

// decodePeriod decodes a Period-shaped map. Returns false when both
// bounds are absent.
func decodePeriod(obj map[string]any) (period, bool) {
	p := period{
		start: stringField(obj, "start"),
		end:   stringField(obj, "end"),
	}
	return p, p.start != "" || p.end != ""
}

// decodeRange decodes a Range-shaped map. Returns false when neither
// bound carries a value.
func decodeRange(path string, obj map[string]any) (rangeBounds, bool, error) {
	var r rangeBounds

	if lowObj, ok := obj["low"].(map[string]any); ok {
		q, ok, err := decodeQuantity(path+".low", lowObj)
		if err != nil {
			return r, false, err
		}
		if ok {
			r.low = &q
		}
	}
	if highObj, ok := obj["high"].(map[string]any); ok {
		q, ok, err := decodeQuantity(path+".high", highObj)
		if err != nil {
			return r, false, err
		}
		if ok {
			r.high = &q
		}
	}

	return r, r.low != nil || r.high != nil, nil
}

// isMoneyShaped reports whether obj looks like a Money rather than a
// Quantity. Money carries a currency code instead of a unit system.
func isMoneyShaped(obj map[string]any) bool {
	_, ok := obj["currency"]
	return ok
}

// isRangeShaped reports whether obj looks like a FHIR Range.
func isRangeShaped(obj map[string]any) bool {
	if _, ok := obj["low"]; ok {
		return true
	}
	_, ok := obj["high"]
	return ok
}

// isPeriodShaped reports whether obj looks like a FHIR Period.
func isPeriodShaped(obj map[string]any) bool {
	if _, ok := obj["start"]; ok {
		return true
	}
	_, ok := obj["end"]
	return ok
}

// humanNameParts returns the textual sub-parts of a HumanName-shaped
// map in reading order, or nil when none are present.
func humanNameParts(obj map[string]any) []string {
	var parts []string
	parts = appendStrings(parts, obj["prefix"])
	parts = appendStrings(parts, obj["given"])
	parts = appendString(parts, obj["family"])
	parts = appendStrings(parts, obj["suffix"])
	if len(parts) == 0 {
		parts = appendString(parts, obj["text"])
	}
	return parts
}

// addressParts returns the textual sub-parts of an Address-shaped map
// in reading order, or nil when none are present.
func addressParts(obj map[string]any) []string {
	var parts []string
	parts = appendStrings(parts, obj["line"])
	parts = appendString(parts, obj["city"])
	parts = appendString(parts, obj["district"])
	parts = appendString(parts, obj["state"])
	parts = appendString(parts, obj["postalCode"])
	parts = appendString(parts, obj["country"])
	if len(parts) == 0 {
		parts = appendString(parts, obj["text"])
	}
	return parts
}

// isHumanNameShaped reports whether obj carries HumanName parts.
func isHumanNameShaped(obj map[string]any) bool {
	for _, key := range []string{"family", "given", "prefix", "suffix"} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// isAddressShaped reports whether obj carries Address parts.
func isAddressShaped(obj map[string]any) bool {
	for _, key := range []string{"line", "city", "district", "state", "postalCode", "country"} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

func appendString(parts []string, v any) []string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func appendStrings(parts []string, v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return appendString(parts, v)
	}
	for _, item := range arr {
		parts = appendString(parts, item)
	}
	return parts
}
