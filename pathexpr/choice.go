package pathexpr

// choiceTypeSuffixes lists every datatype name that may terminate a
// choice ("[x]") element key, e.g. "valueQuantity" or "deceasedBoolean".
// Order matters: longer names appear before their prefixes so that
// "MoneyQuantity" wins over "Quantity" when both would match.
var choiceTypeSuffixes = []string{
	// Primitives
	"String",
	"Boolean",
	"Integer64",
	"Integer",
	"Decimal",
	"DateTime",
	"Date",
	"Time",
	"Instant",
	"Uri",
	"Url",
	"Canonical",
	"Code",
	"Id",
	"Markdown",
	"Base64Binary",
	"Oid",
	"Uuid",
	"PositiveInt",
	"UnsignedInt",

	// Complex types
	"Address",
	"Age",
	"Annotation",
	"Attachment",
	"CodeableConcept",
	"CodeableReference",
	"Coding",
	"ContactDetail",
	"ContactPoint",
	"Contributor",
	"Count",
	"DataRequirement",
	"Distance",
	"Dosage",
	"Duration",
	"Expression",
	"HumanName",
	"Identifier",
	"Meta",
	"MoneyQuantity",
	"Money",
	"Narrative",
	"ParameterDefinition",
	"Period",
	"SimpleQuantity",
	"Quantity",
	"RatioRange",
	"Range",
	"Ratio",
	"Reference",
	"RelatedArtifact",
	"SampledData",
	"Signature",
	"Timing",
	"TriggerDefinition",
	"UsageContext",
}

// resolveKey finds the document key for a path segment in obj.
// It tries the segment directly first, then each choice-type variant
// (segment + datatype suffix). Returns the concrete key and value, or
// ("", nil) when the element is absent.
func resolveKey(obj map[string]any, seg string) (string, any) {
	if v, ok := obj[seg]; ok && v != nil {
		return seg, v
	}

	for _, suffix := range choiceTypeSuffixes {
		candidate := seg + suffix
		if v, ok := obj[candidate]; ok && v != nil {
			return candidate, v
		}
	}

	return "", nil
}
