package searchindex

import (
	"sync/atomic"
	"time"
)

// Metrics tracks indexing performance metrics using lock-free atomic
// operations. All methods are safe for concurrent use.
type Metrics struct {
	// Record counts
	recordsIndexed atomic.Uint64
	recordsFailed  atomic.Uint64

	// Timing (stored as nanoseconds)
	indexTimeTotal atomic.Uint64
	indexTimeMin   atomic.Uint64
	indexTimeMax   atomic.Uint64

	// Entry counts by kind
	stringEntries    atomic.Uint64
	numberEntries    atomic.Uint64
	dateEntries      atomic.Uint64
	uriEntries       atomic.Uint64
	tokenEntries     atomic.Uint64
	quantityEntries  atomic.Uint64
	referenceEntries atomic.Uint64

	// Skip accounting
	extractorDeclines  atomic.Uint64
	referenceDeclines  atomic.Uint64
	definitionsSkipped atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.indexTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordIndexing records a completed indexing call.
func (m *Metrics) RecordIndexing(duration time.Duration, ok bool) {
	m.recordsIndexed.Add(1)
	if !ok {
		m.recordsFailed.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.indexTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.indexTimeMin.Load()
		if ns >= old {
			break
		}
		if m.indexTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.indexTimeMax.Load()
		if ns <= old {
			break
		}
		if m.indexTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordEntry records one emitted index entry of the given kind.
func (m *Metrics) RecordEntry(kind IndexKind) {
	switch kind {
	case KindString:
		m.stringEntries.Add(1)
	case KindNumber:
		m.numberEntries.Add(1)
	case KindDate:
		m.dateEntries.Add(1)
	case KindURI:
		m.uriEntries.Add(1)
	case KindToken:
		m.tokenEntries.Add(1)
	case KindQuantity:
		m.quantityEntries.Add(1)
	case KindReference:
		m.referenceEntries.Add(1)
	}
}

// RecordDecline records an extractor declining a value.
func (m *Metrics) RecordDecline() {
	m.extractorDeclines.Add(1)
}

// RecordReferenceDecline records a reference value that could not be
// rendered as a literal reference string.
func (m *Metrics) RecordReferenceDecline() {
	m.referenceDeclines.Add(1)
	m.extractorDeclines.Add(1)
}

// RecordDefinitionSkipped records a catalogue definition skipped as
// malformed or unsupported.
func (m *Metrics) RecordDefinitionSkipped() {
	m.definitionsSkipped.Add(1)
}

// --- Query Methods ---

// RecordsIndexed returns the total number of indexing calls.
func (m *Metrics) RecordsIndexed() uint64 {
	return m.recordsIndexed.Load()
}

// RecordsFailed returns the number of indexing calls that failed.
func (m *Metrics) RecordsFailed() uint64 {
	return m.recordsFailed.Load()
}

// EntriesTotal returns the total number of emitted entries.
func (m *Metrics) EntriesTotal() uint64 {
	return m.stringEntries.Load() +
		m.numberEntries.Load() +
		m.dateEntries.Load() +
		m.uriEntries.Load() +
		m.tokenEntries.Load() +
		m.quantityEntries.Load() +
		m.referenceEntries.Load()
}

// Entries returns the number of emitted entries of one kind.
func (m *Metrics) Entries(kind IndexKind) uint64 {
	switch kind {
	case KindString:
		return m.stringEntries.Load()
	case KindNumber:
		return m.numberEntries.Load()
	case KindDate:
		return m.dateEntries.Load()
	case KindURI:
		return m.uriEntries.Load()
	case KindToken:
		return m.tokenEntries.Load()
	case KindQuantity:
		return m.quantityEntries.Load()
	case KindReference:
		return m.referenceEntries.Load()
	default:
		return 0
	}
}

// ExtractorDeclines returns the total extractor declines.
func (m *Metrics) ExtractorDeclines() uint64 {
	return m.extractorDeclines.Load()
}

// ReferenceDeclines returns the number of declined reference values.
func (m *Metrics) ReferenceDeclines() uint64 {
	return m.referenceDeclines.Load()
}

// DefinitionsSkipped returns the number of skipped catalogue definitions.
func (m *Metrics) DefinitionsSkipped() uint64 {
	return m.definitionsSkipped.Load()
}

// AverageIndexTime returns the average indexing duration.
func (m *Metrics) AverageIndexTime() time.Duration {
	total := m.recordsIndexed.Load()
	if total == 0 {
		return 0
	}
	avgNs := m.indexTimeTotal.Load() / total
	return time.Duration(avgNs) //nolint:gosec // Safe: avgNs represents nanoseconds within int64 range
}

// MinIndexTime returns the minimum indexing duration.
func (m *Metrics) MinIndexTime() time.Duration {
	minVal := m.indexTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: minVal represents nanoseconds within int64 range
}

// MaxIndexTime returns the maximum indexing duration.
func (m *Metrics) MaxIndexTime() time.Duration {
	return time.Duration(m.indexTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RecordsIndexed     uint64
	RecordsFailed      uint64
	EntriesTotal       uint64
	EntriesByKind      map[IndexKind]uint64
	ExtractorDeclines  uint64
	ReferenceDeclines  uint64
	DefinitionsSkipped uint64
	AvgIndexTime       time.Duration
	MinIndexTime       time.Duration
	MaxIndexTime       time.Duration
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	byKind := make(map[IndexKind]uint64, 7)
	for _, k := range []IndexKind{
		KindString, KindNumber, KindDate, KindURI,
		KindToken, KindQuantity, KindReference,
	} {
		byKind[k] = m.Entries(k)
	}
	return Snapshot{
		RecordsIndexed:     m.RecordsIndexed(),
		RecordsFailed:      m.RecordsFailed(),
		EntriesTotal:       m.EntriesTotal(),
		EntriesByKind:      byKind,
		ExtractorDeclines:  m.ExtractorDeclines(),
		ReferenceDeclines:  m.ReferenceDeclines(),
		DefinitionsSkipped: m.DefinitionsSkipped(),
		AvgIndexTime:       m.AverageIndexTime(),
		MinIndexTime:       m.MinIndexTime(),
		MaxIndexTime:       m.MaxIndexTime(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.recordsIndexed.Store(0)
	m.recordsFailed.Store(0)
	m.indexTimeTotal.Store(0)
	m.indexTimeMin.Store(^uint64(0))
	m.indexTimeMax.Store(0)
	m.stringEntries.Store(0)
	m.numberEntries.Store(0)
	m.dateEntries.Store(0)
	m.uriEntries.Store(0)
	m.tokenEntries.Store(0)
	m.quantityEntries.Store(0)
	m.referenceEntries.Store(0)
	m.extractorDeclines.Store(0)
	m.referenceDeclines.Store(0)
	m.definitionsSkipped.Store(0)
}
