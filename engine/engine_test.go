package engine

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	si "github.com/gofhir/searchindex"
	"github.com/gofhir/searchindex/pathexpr"
	"github.com/gofhir/searchindex/registry"
)

const invoiceJSON = `{
	"resourceType": "Invoice",
	"id": "example",
	"identifier": [
		{"system": "http://myHospital.org/Invoices", "value": "654321"}
	],
	"subject": {"reference": "Patient/example"},
	"participant": [
		{
			"role": {
				"coding": [
					{"system": "http://snomed.info/sct", "code": "17561000", "display": "Cardiologist"}
				]
			},
			"actor": {"reference": "Practitioner/example"}
		}
	],
	"account": {"reference": "Account/example"},
	"totalNet": {"value": 40.22, "currency": "EUR"},
	"totalGross": {"value": 48, "currency": "EUR"}
}`

func newTestEngine(t *testing.T, opts ...si.Option) *Engine {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("registry.Default failed: %v", err)
	}
	eng, err := New(reg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return eng
}

func TestIndex_Invoice(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	if indices.ResourceType != "Invoice" || indices.ResourceID != "example" {
		t.Errorf("stamped %s/%s; want Invoice/example", indices.ResourceType, indices.ResourceID)
	}

	// Quantities: exactly totalgross and totalnet with exact values.
	if len(indices.QuantityIndices) != 2 {
		t.Fatalf("got %d quantity entries; want 2", len(indices.QuantityIndices))
	}
	byName := map[string]si.QuantityIndex{}
	for _, q := range indices.QuantityIndices {
		byName[q.Name] = q
	}
	gross, ok := byName["totalgross"]
	if !ok {
		t.Fatal("missing totalgross entry")
	}
	if gross.System != "urn:iso:std:iso:4217" || gross.Unit != "EUR" {
		t.Errorf("totalgross system/unit = %q/%q; want iso4217/EUR", gross.System, gross.Unit)
	}
	if gross.Value.String() != "48" {
		t.Errorf("totalgross value = %s; want 48", gross.Value)
	}
	if gross.Path != "Invoice.totalGross" {
		t.Errorf("totalgross path = %q; want Invoice.totalGross", gross.Path)
	}
	net, ok := byName["totalnet"]
	if !ok {
		t.Fatal("missing totalnet entry")
	}
	if net.Value.String() != "40.22" {
		t.Errorf("totalnet value = %s; want 40.22", net.Value)
	}

	// Tokens: the synthetic _id plus identifier and participant-role.
	wantTokens := []si.TokenIndex{
		{Name: "_id", Path: "Invoice.id", Code: "example"},
		{Name: "identifier", Path: "Invoice.identifier", System: "http://myHospital.org/Invoices", Code: "654321"},
		{Name: "participant-role", Path: "Invoice.participant.role", System: "http://snomed.info/sct", Code: "17561000"},
	}
	if !reflect.DeepEqual(indices.TokenIndices, wantTokens) {
		t.Errorf("tokens = %+v; want %+v", indices.TokenIndices, wantTokens)
	}

	// References: account, participant actor and subject.
	gotRefs := map[string]string{}
	for _, r := range indices.ReferenceIndices {
		gotRefs[r.Name] = r.Value
	}
	wantRefs := map[string]string{
		"account":     "Account/example",
		"participant": "Practitioner/example",
		"subject":     "Patient/example",
	}
	if !reflect.DeepEqual(gotRefs, wantRefs) {
		t.Errorf("references = %v; want %v", gotRefs, wantRefs)
	}

	// Nothing else.
	if len(indices.StringIndices) != 0 {
		t.Errorf("got %d string entries; want 0", len(indices.StringIndices))
	}
	if len(indices.URIIndices) != 0 {
		t.Errorf("got %d uri entries; want 0", len(indices.URIIndices))
	}
	if len(indices.DateIndices) != 0 {
		t.Errorf("got %d date entries; want 0", len(indices.DateIndices))
	}
	if len(indices.NumberIndices) != 0 {
		t.Errorf("got %d number entries; want 0", len(indices.NumberIndices))
	}
}

func TestIndex_PatientBirthdate(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "Patient",
		"id": "example",
		"birthDate": "1974-12-25"
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	if len(indices.DateIndices) != 1 {
		t.Fatalf("got %d date entries; want 1", len(indices.DateIndices))
	}
	entry := indices.DateIndices[0]
	if entry.Name != "birthdate" {
		t.Errorf("name = %q; want birthdate", entry.Name)
	}
	if entry.Precision != si.PrecisionDay {
		t.Errorf("precision = %q; want day", entry.Precision)
	}
	wantFrom := time.Date(1974, 12, 25, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(1974, 12, 25, 23, 59, 59, 0, time.UTC)
	if !entry.From.Equal(wantFrom) || !entry.To.Equal(wantTo) {
		t.Errorf("span = [%v, %v]; want [%v, %v]", entry.From, entry.To, wantFrom, wantTo)
	}
}

func TestIndex_ChargeItemFactorOverride(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "ChargeItem",
		"id": "example",
		"factorOverride": 0.8
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	if len(indices.NumberIndices) != 1 {
		t.Fatalf("got %d number entries; want 1", len(indices.NumberIndices))
	}
	entry := indices.NumberIndices[0]
	if entry.Name != "factor-override" {
		t.Errorf("name = %q; want factor-override", entry.Name)
	}
	// Exact decimal, not a float approximation.
	if entry.Value.String() != "0.8" {
		t.Errorf("value renders as %q; want %q", entry.Value.String(), "0.8")
	}
	if !entry.Value.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("value = %s; want 0.8", entry.Value)
	}
}

func TestIndex_MolecularSequenceWindows(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "MolecularSequence",
		"id": "example",
		"referenceSeq": {
			"windowStart": 22125500,
			"windowEnd": 22125510
		},
		"variant": [
			{"start": 22125503, "end": 22125504, "observedAllele": "T", "referenceAllele": "C"}
		]
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	want := map[string]string{
		"window-start":  "22125500",
		"window-end":    "22125510",
		"variant-start": "22125503",
		"variant-end":   "22125504",
	}
	got := map[string]string{}
	for _, n := range indices.NumberIndices {
		got[n.Name] = n.Value.String()
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("number entries = %v; want %v", got, want)
	}
}

func TestIndex_RepeatedVariantsProduceRepeatedEntries(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "MolecularSequence",
		"id": "example",
		"variant": [
			{"start": 100, "end": 200},
			{"start": 300, "end": 400}
		]
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	var starts []string
	for _, n := range indices.NumberIndices {
		if n.Name == "variant-start" {
			starts = append(starts, n.Value.String())
		}
	}
	if !reflect.DeepEqual(starts, []string{"100", "300"}) {
		t.Errorf("variant-start values = %v; want [100 300]", starts)
	}
}

func TestIndex_UncataloguedType(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "Medication",
		"id": "med0301",
		"meta": {"lastUpdated": "2020-04-09T15:10:17Z"},
		"code": {"coding": [{"system": "http://hl7.org/fhir/sid/ndc", "code": "0409-6531-02"}]}
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	wantTokens := []si.TokenIndex{{Name: "_id", Path: "Medication.id", Code: "med0301"}}
	if !reflect.DeepEqual(indices.TokenIndices, wantTokens) {
		t.Errorf("tokens = %+v; want only the synthetic _id", indices.TokenIndices)
	}
	if len(indices.DateIndices) != 1 {
		t.Fatalf("got %d date entries; want the synthetic _lastUpdated", len(indices.DateIndices))
	}
	lu := indices.DateIndices[0]
	if lu.Name != "_lastUpdated" || lu.Precision != si.PrecisionSecond {
		t.Errorf("lastUpdated entry = %+v; want _lastUpdated at second precision", lu)
	}
	if total := indices.Len(); total != 2 {
		t.Errorf("total entries = %d; want 2", total)
	}
}

func TestIndex_MissingTypeOrID(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.Index(map[string]any{"id": "x"}); err != si.ErrNoResourceType {
		t.Errorf("err = %v; want ErrNoResourceType", err)
	}
	if _, err := eng.Index(map[string]any{"resourceType": "Patient"}); err != si.ErrNoResourceID {
		t.Errorf("err = %v; want ErrNoResourceID", err)
	}
}

func TestIndex_ContractViolationAbortsWholeCall(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "Invoice",
		"id": "example",
		"totalGross": {"value": "not-a-number", "currency": "EUR"}
	}`))
	if !si.IsContractError(err) {
		t.Fatalf("err = %v; want ContractError", err)
	}
	if indices != nil {
		t.Error("expected no partial result on contract violation")
	}
}

func TestIndex_Deterministic(t *testing.T) {
	eng := newTestEngine(t)

	resource, err := ParseResource([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("ParseResource failed: %v", err)
	}

	first, err := eng.Index(resource)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := eng.Index(resource)
				if err != nil {
					t.Errorf("Index failed: %v", err)
					return
				}
				if !reflect.DeepEqual(got, first) {
					t.Error("Index is not deterministic across calls")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestIndex_CodeableConceptFansOut(t *testing.T) {
	reg := registry.New(map[string][]registry.ParamDef{
		"Condition": {
			{Name: "code", Kind: si.KindToken, Path: "Condition.code"},
		},
	})
	eng, err := New(reg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "Condition",
		"id": "example",
		"code": {
			"coding": [
				{"system": "http://snomed.info/sct", "code": "39065001"},
				{"system": "http://hl7.org/fhir/sid/icd-10", "code": "T31.0"}
			]
		}
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	var codes []string
	for _, tok := range indices.TokenIndices {
		if tok.Name == "code" {
			codes = append(codes, tok.Code)
			if tok.Path != "Condition.code" {
				t.Errorf("path = %q; want Condition.code", tok.Path)
			}
		}
	}
	if !reflect.DeepEqual(codes, []string{"39065001", "T31.0"}) {
		t.Errorf("codes = %v; want one token per coding", codes)
	}
}

func TestIndex_MalformedDefinitionSkipped(t *testing.T) {
	metrics := si.NewMetrics()
	reg := registry.New(map[string][]registry.ParamDef{
		"Patient": {
			{Name: "bad-kind", Kind: si.IndexKind("composite"), Path: "Patient.name"},
			{Name: "bad-path", Kind: si.KindToken, Path: "Patient.name.where(use='official')"},
			{Name: "gender", Kind: si.KindToken, Path: "Patient.gender"},
		},
	})
	eng, err := New(reg, si.WithMetrics(metrics))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "Patient",
		"id": "example",
		"gender": "male"
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	var names []string
	for _, tok := range indices.TokenIndices {
		names = append(names, tok.Name)
	}
	if !reflect.DeepEqual(names, []string{"_id", "gender"}) {
		t.Errorf("token names = %v; want malformed definitions skipped", names)
	}
	if got := metrics.DefinitionsSkipped(); got != 2 {
		t.Errorf("DefinitionsSkipped = %d; want 2", got)
	}
}

func TestIndex_ProvenanceRoundTrip(t *testing.T) {
	eng := newTestEngine(t)

	resource, err := ParseResource([]byte(invoiceJSON))
	if err != nil {
		t.Fatalf("ParseResource failed: %v", err)
	}
	indices, err := eng.Index(resource)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	// Every emitted path must resolve, via the evaluator, to at least
	// one value of the shape that produced the entry.
	for _, q := range indices.QuantityIndices {
		found := false
		err := pathexpr.Evaluate(resource, q.Path, func(value any, path string) error {
			if path == q.Path {
				found = true
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", q.Path, err)
		}
		if !found {
			t.Errorf("path %q does not resolve back to a value", q.Path)
		}
	}
}

func TestIndex_ChoiceDateParameter(t *testing.T) {
	eng := newTestEngine(t)

	indices, err := eng.IndexJSON([]byte(`{
		"resourceType": "ChargeItem",
		"id": "example",
		"occurrenceDateTime": "2017-01-25T08:00:00+01:00"
	}`))
	if err != nil {
		t.Fatalf("IndexJSON failed: %v", err)
	}

	if len(indices.DateIndices) != 1 {
		t.Fatalf("got %d date entries; want 1", len(indices.DateIndices))
	}
	entry := indices.DateIndices[0]
	if entry.Name != "occurrence" {
		t.Errorf("name = %q; want occurrence", entry.Name)
	}
	if entry.Path != "ChargeItem.occurrenceDateTime" {
		t.Errorf("path = %q; want the resolved choice variant", entry.Path)
	}
	want := time.Date(2017, 1, 25, 7, 0, 0, 0, time.UTC)
	if !entry.From.Equal(want) {
		t.Errorf("From = %v; want %v", entry.From, want)
	}
}

func TestNew_NilRegistry(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil registry")
	}
}
