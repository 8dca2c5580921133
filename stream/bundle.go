// Package stream provides streaming index extraction for large FHIR bundles.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	si "github.com/gofhir/searchindex"
)

// IndexFunc indexes one parsed resource. Engine.Index satisfies it
// once wrapped to take a context.
type IndexFunc func(ctx context.Context, resource map[string]any) (*si.ResourceIndices, error)

// EntryResult represents the index extraction result for a single
// bundle entry.
type EntryResult struct {
	// Index is the position of the entry in the bundle
	Index int

	// FullURL is the fullUrl of the entry (if present)
	FullURL string

	// ResourceType is the type of resource in the entry
	ResourceType string

	// ResourceID is the id of the resource (if present)
	ResourceID string

	// Indices holds the extracted entries. Nil when the entry carried
	// no resource or indexing failed.
	Indices *si.ResourceIndices

	// Error is set if there was an error processing the entry
	Error error
}

// BundleIndexer indexes bundles in a streaming fashion.
type BundleIndexer struct {
	// indexEntry is the function used to index individual entries
	indexEntry IndexFunc

	// bufferSize is the channel buffer size
	bufferSize int

	// workerCount is the number of parallel workers
	workerCount int
}

// NewBundleIndexer creates a new streaming bundle indexer.
func NewBundleIndexer(indexFunc IndexFunc) *BundleIndexer {
	return &BundleIndexer{
		indexEntry:  indexFunc,
		bufferSize:  100,
		workerCount: 4,
	}
}

// WithBufferSize sets the channel buffer size.
func (b *BundleIndexer) WithBufferSize(size int) *BundleIndexer {
	if size > 0 {
		b.bufferSize = size
	}
	return b
}

// WithWorkerCount sets the number of parallel workers.
func (b *BundleIndexer) WithWorkerCount(count int) *BundleIndexer {
	if count > 0 {
		b.workerCount = count
	}
	return b
}

// IndexStream indexes a bundle from an io.Reader, emitting results as
// entries are processed. Results are emitted in the order they appear
// in the bundle. Entries are never buffered whole: the bundle is read
// through a streaming decoder.
func (b *BundleIndexer) IndexStream(ctx context.Context, r io.Reader) <-chan *EntryResult {
	results := make(chan *EntryResult, b.bufferSize)

	go func() {
		defer close(results)

		decoder := json.NewDecoder(r)
		decoder.UseNumber()

		// Read opening brace
		token, err := decoder.Token()
		if err != nil {
			results <- &EntryResult{Index: -1, Error: fmt.Errorf("failed to read bundle: %w", err)}
			return
		}
		if delim, ok := token.(json.Delim); !ok || delim != '{' {
			results <- &EntryResult{Index: -1, Error: fmt.Errorf("expected object start, got %v", token)}
			return
		}

		// Process bundle fields until we find "entry"
		for decoder.More() {
			select {
			case <-ctx.Done():
				results <- &EntryResult{Index: -1, Error: ctx.Err()}
				return
			default:
			}

			token, err := decoder.Token()
			if err != nil {
				results <- &EntryResult{Index: -1, Error: fmt.Errorf("failed to read field: %w", err)}
				return
			}

			fieldName, ok := token.(string)
			if !ok {
				continue
			}

			if fieldName == "entry" {
				b.processEntries(ctx, decoder, results)
				return
			}

			// Skip other fields
			var skip any
			if err := decoder.Decode(&skip); err != nil {
				results <- &EntryResult{Index: -1, Error: fmt.Errorf("failed to skip field %s: %w", fieldName, err)}
				return
			}
		}

		// No entry field found - empty bundle
	}()

	return results
}

// processEntries processes the entry array from the bundle.
func (b *BundleIndexer) processEntries(ctx context.Context, decoder *json.Decoder, results chan<- *EntryResult) {
	// Read opening bracket of entry array
	token, err := decoder.Token()
	if err != nil {
		results <- &EntryResult{Index: -1, Error: fmt.Errorf("failed to read entry array: %w", err)}
		return
	}
	if delim, ok := token.(json.Delim); !ok || delim != '[' {
		results <- &EntryResult{Index: -1, Error: fmt.Errorf("expected array start, got %v", token)}
		return
	}

	index := 0
	for decoder.More() {
		select {
		case <-ctx.Done():
			results <- &EntryResult{Index: index, Error: ctx.Err()}
			return
		default:
		}

		var entry map[string]any
		if err := decoder.Decode(&entry); err != nil {
			results <- &EntryResult{
				Index: index,
				Error: fmt.Errorf("failed to decode entry %d: %w", index, err),
			}
			index++
			continue
		}

		results <- b.processEntry(ctx, entry, index)
		index++
	}
}

// processEntry indexes a single bundle entry.
func (b *BundleIndexer) processEntry(ctx context.Context, entry map[string]any, index int) *EntryResult {
	result := &EntryResult{
		Index: index,
	}

	if fullURL, ok := entry["fullUrl"].(string); ok {
		result.FullURL = fullURL
	}

	resource, ok := entry["resource"].(map[string]any)
	if !ok {
		// No resource in entry
		return result
	}

	if rt, ok := resource["resourceType"].(string); ok {
		result.ResourceType = rt
	}
	if id, ok := resource["id"].(string); ok {
		result.ResourceID = id
	}

	indices, err := b.indexEntry(ctx, resource)
	if err != nil {
		result.Error = err
		return result
	}

	result.Indices = indices
	return result
}

// IndexStreamParallel indexes entries in parallel while preserving
// order in the output.
func (b *BundleIndexer) IndexStreamParallel(ctx context.Context, r io.Reader) <-chan *EntryResult {
	results := make(chan *EntryResult, b.bufferSize)

	go func() {
		defer close(results)

		decoder := json.NewDecoder(r)
		decoder.UseNumber()

		var bundle map[string]any
		if err := decoder.Decode(&bundle); err != nil {
			results <- &EntryResult{Index: -1, Error: fmt.Errorf("failed to decode bundle: %w", err)}
			return
		}

		entries, ok := bundle["entry"].([]any)
		if !ok {
			// No entries
			return
		}

		type workItem struct {
			index int
			entry map[string]any
		}

		workChan := make(chan workItem, b.bufferSize)
		resultChan := make(chan *EntryResult, b.bufferSize)

		var wg sync.WaitGroup
		for i := 0; i < b.workerCount; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for work := range workChan {
					select {
					case <-ctx.Done():
						return
					default:
					}
					resultChan <- b.processEntry(ctx, work.entry, work.index)
				}
			}()
		}

		go func() {
			for i, e := range entries {
				entry, ok := e.(map[string]any)
				if !ok {
					continue
				}
				select {
				case workChan <- workItem{index: i, entry: entry}:
				case <-ctx.Done():
					break
				}
			}
			close(workChan)
			wg.Wait()
			close(resultChan)
		}()

		// Collect results and reorder
		pending := make(map[int]*EntryResult)
		nextIndex := 0
		totalEntries := len(entries)

		for result := range resultChan {
			pending[result.Index] = result

			for {
				if r, ok := pending[nextIndex]; ok {
					results <- r
					delete(pending, nextIndex)
					nextIndex++
				} else {
					break
				}
			}

			if nextIndex >= totalEntries {
				break
			}
		}

		for nextIndex < totalEntries {
			if r, ok := pending[nextIndex]; ok {
				results <- r
				delete(pending, nextIndex)
			}
			nextIndex++
		}
	}()

	return results
}

// BundleStreamResult aggregates results from streaming index extraction.
type BundleStreamResult struct {
	// TotalEntries is the number of entries processed
	TotalEntries int

	// EntriesIndexed is the count of entries that were indexed
	EntriesIndexed int

	// EntriesFailed is the count of entries whose indexing failed
	EntriesFailed int

	// TotalIndexEntries is the total number of extracted index entries
	TotalIndexEntries int

	// ProcessingErrors are errors that occurred during processing
	ProcessingErrors []error
}

// Collect drains a result channel into an aggregate summary.
func Collect(results <-chan *EntryResult) *BundleStreamResult {
	agg := &BundleStreamResult{}
	for result := range results {
		if result.Index < 0 {
			agg.ProcessingErrors = append(agg.ProcessingErrors, result.Error)
			continue
		}
		agg.TotalEntries++
		switch {
		case result.Error != nil:
			agg.EntriesFailed++
			agg.ProcessingErrors = append(agg.ProcessingErrors, result.Error)
		case result.Indices != nil:
			agg.EntriesIndexed++
			agg.TotalIndexEntries += result.Indices.Len()
		}
	}
	return agg
}
