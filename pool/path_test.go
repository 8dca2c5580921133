package pool

import (
	"sync"
	"testing"
)

func TestPathBuilder_Basic(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.WriteString("Patient")
	pb.AppendWithDot("name")

	if got := pb.String(); got != "Patient.name" {
		t.Errorf("String() = %q; want %q", got, "Patient.name")
	}
}

func TestPathBuilder_AppendWithDot(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.WriteString("Patient")
	pb.AppendWithDot("name")
	pb.AppendWithDot("given")

	if got := pb.String(); got != "Patient.name.given" {
		t.Errorf("String() = %q; want %q", got, "Patient.name.given")
	}

	// Test when buffer is empty
	pb.Reset()
	pb.AppendWithDot("Patient")
	if got := pb.String(); got != "Patient" {
		t.Errorf("String() with empty buffer = %q; want %q", got, "Patient")
	}
}

func TestPathBuilder_Truncate(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.WriteString("Invoice")
	mark := pb.Len()
	pb.AppendWithDot("participant")
	pb.AppendWithDot("role")

	if got := pb.String(); got != "Invoice.participant.role" {
		t.Errorf("String() = %q; want %q", got, "Invoice.participant.role")
	}

	pb.Truncate(mark)
	pb.AppendWithDot("subject")

	if got := pb.String(); got != "Invoice.subject" {
		t.Errorf("String() after Truncate = %q; want %q", got, "Invoice.subject")
	}
}

func TestPathBuilder_Reset(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.WriteString("Patient.name")
	pb.Reset()

	if pb.Len() != 0 {
		t.Errorf("Len() after Reset = %d; want 0", pb.Len())
	}

	pb.WriteString("Observation")
	if got := pb.String(); got != "Observation" {
		t.Errorf("String() after Reset = %q; want %q", got, "Observation")
	}
}

func TestPathBuilder_NilRelease(t *testing.T) {
	var pb *PathBuilder
	pb.Release() // Should not panic
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{nil, ""},
		{[]string{"Patient"}, "Patient"},
		{[]string{"Patient", "name"}, "Patient.name"},
		{[]string{"Invoice", "participant", "role"}, "Invoice.participant.role"},
	}

	for _, tt := range tests {
		if got := JoinPath(tt.segments...); got != tt.want {
			t.Errorf("JoinPath(%v) = %q; want %q", tt.segments, got, tt.want)
		}
	}
}

func TestPathBuilder_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pb := AcquirePathBuilder()
				pb.WriteString("ChargeItem")
				pb.AppendWithDot("factorOverride")
				if got := pb.String(); got != "ChargeItem.factorOverride" {
					t.Errorf("String() = %q; want %q", got, "ChargeItem.factorOverride")
				}
				pb.Release()
			}
		}()
	}
	wg.Wait()
}
