// Package index implements the positional inverted index: a term to
// posting-list map with per-document term frequency, field set, and
// boost, supporting incremental add/remove and prefix enumeration.
//
// Grounded on the teacher's internal/database/universal_index.go
// (postings map keyed by term, per-document per-field term frequency,
// BM25F field weights fixed at construction), generalized from four
// hardcoded fields to the title/problem/solution/tags/category set and
// from a build-only structure to full add/remove/prefix/export/import.
package index

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mainframekb/corekb/internal/clock"
	"github.com/mainframekb/corekb/internal/document"
	"github.com/mainframekb/corekb/internal/textproc"
)

// FieldWeights are fixed at construction per spec.md §4.3: title
// carries the heaviest boost, category the lightest.
var FieldWeights = map[string]float64{
	"title":    3.0,
	"problem":  2.0,
	"solution": 1.8,
	"tags":     1.5,
	"category": 1.2,
}

const maxPositionsPerEntry = 100

// PostingEntry is one document's contribution to a term's posting
// list: its term frequency, bounded position list, the fields it
// appeared in, and the boost (the max of those fields' weights).
type PostingEntry struct {
	DocID         string
	TermFrequency int
	Positions     []int
	Fields        map[string]bool
	Boost         float64
}

// PostingList is the set of documents containing a term.
type PostingList struct {
	Term            string
	GlobalFrequency int
	Docs            map[string]*PostingEntry
}

// IndexedDocument is the derived, index-owned entity created on add,
// replaced on update, destroyed on remove.
type IndexedDocument struct {
	ID            string
	FieldLengths  map[string]int
	TotalTerms    int
	TermFrequency map[string]int
	LastModified  time.Time
}

// IndexStats is a derived snapshot, never persisted as source of truth.
type IndexStats struct {
	TotalDocuments        int
	UniqueTerms           int
	TotalTerms            int
	AverageDocumentLength float64
	EstimatedByteSize     int64
	LastUpdated           time.Time
}

const exportSchemaVersion = 1

type exportedEntry struct {
	DocID         string          `json:"doc_id"`
	TermFrequency int             `json:"tf"`
	Positions     []int           `json:"positions"`
	Fields        []string        `json:"fields"`
	Boost         float64         `json:"boost"`
}

type exportedPostingList struct {
	Term            string          `json:"term"`
	GlobalFrequency int             `json:"global_frequency"`
	Docs            []exportedEntry `json:"docs"`
}

type exportedDocument struct {
	ID            string         `json:"id"`
	FieldLengths  map[string]int `json:"field_lengths"`
	TotalTerms    int            `json:"total_terms"`
	TermFrequency map[string]int `json:"term_frequency"`
	LastModified  time.Time      `json:"last_modified"`
}

type exportedIndex struct {
	Version   int                   `json:"version"`
	Postings  []exportedPostingList `json:"postings"`
	Documents []exportedDocument    `json:"documents"`
}

// InvertedIndex is the single mutable structure the engine shares
// across readers and writers, coordinated by one RWMutex (teacher
// precedent: internal/cache/lru_cache.go's locking discipline).
type InvertedIndex struct {
	mu        sync.RWMutex
	postings  map[string]*PostingList
	documents map[string]*IndexedDocument
	processor *textproc.Processor
	clock     clock.Clock
	batchSize int
}

// New returns an empty index using processor for tokenization and
// clock for LastModified timestamps.
func New(processor *textproc.Processor, clk clock.Clock) *InvertedIndex {
	if clk == nil {
		clk = clock.NewReal()
	}
	return &InvertedIndex{
		postings:  make(map[string]*PostingList),
		documents: make(map[string]*IndexedDocument),
		processor: processor,
		clock:     clk,
		batchSize: 100,
	}
}

// Build indexes docs from scratch in batches of batchSize (default
// 100) for memory stability on large corpora. Batching is an internal
// optimization, not part of the contract: the observable result is
// identical to an initial clear followed by Add for each document.
func (idx *InvertedIndex) Build(docs []document.Document) error {
	idx.mu.Lock()
	idx.postings = make(map[string]*PostingList)
	idx.documents = make(map[string]*IndexedDocument)
	idx.mu.Unlock()

	batch := idx.batchSize
	if batch <= 0 {
		batch = 100
	}
	for start := 0; start < len(docs); start += batch {
		end := start + batch
		if end > len(docs) {
			end = len(docs)
		}
		for _, doc := range docs[start:end] {
			if err := idx.Add(doc); err != nil {
				return err
			}
		}
	}
	return nil
}

// Add indexes doc. Adding is atomic from the caller's perspective: if
// the id already exists, the prior document is removed first so the
// result is equivalent to remove-then-add.
func (idx *InvertedIndex) Add(doc document.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("index: document id must not be empty")
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.documents[doc.ID]; exists {
		idx.removeLocked(doc.ID)
	}
	idx.addLocked(doc)
	return nil
}

func (idx *InvertedIndex) addLocked(doc document.Document) {
	fieldLengths := make(map[string]int)
	termFrequency := make(map[string]int)
	termFields := make(map[string]map[string]bool)
	position := 0
	totalTerms := 0

	for _, f := range doc.Fields() {
		tokens := idx.processor.Process(f.Text, f.Name, textproc.DefaultOptions())
		fieldLengths[f.Name] = len(tokens)
		for _, tok := range tokens {
			term := tok.Stemmed
			if term == "" {
				term = tok.Normalized
			}
			termFrequency[term]++
			totalTerms++

			entry := idx.postings[term]
			if entry == nil {
				entry = &PostingList{Term: term, Docs: make(map[string]*PostingEntry)}
				idx.postings[term] = entry
			}
			posting := entry.Docs[doc.ID]
			if posting == nil {
				posting = &PostingEntry{DocID: doc.ID, Fields: make(map[string]bool)}
				entry.Docs[doc.ID] = posting
			}
			posting.TermFrequency++
			if len(posting.Positions) < maxPositionsPerEntry {
				posting.Positions = append(posting.Positions, position)
			}
			posting.Fields[f.Name] = true
			entry.GlobalFrequency++

			if termFields[term] == nil {
				termFields[term] = make(map[string]bool)
			}
			termFields[term][f.Name] = true

			position++
		}
	}

	for term, fields := range termFields {
		boost := 0.0
		for field := range fields {
			if w := FieldWeights[field]; w > boost {
				boost = w
			}
		}
		if entry, ok := idx.postings[term].Docs[doc.ID]; ok {
			entry.Boost = boost
		}
	}

	idx.documents[doc.ID] = &IndexedDocument{
		ID:            doc.ID,
		FieldLengths:  fieldLengths,
		TotalTerms:    totalTerms,
		TermFrequency: termFrequency,
		LastModified:  idx.clock.Now(),
	}
}

// Remove deletes doc_id's contribution to every posting list and its
// IndexedDocument, reporting whether it was present.
func (idx *InvertedIndex) Remove(docID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.removeLocked(docID)
}

func (idx *InvertedIndex) removeLocked(docID string) bool {
	doc, exists := idx.documents[docID]
	if !exists {
		return false
	}
	for term := range doc.TermFrequency {
		list, ok := idx.postings[term]
		if !ok {
			continue
		}
		entry, ok := list.Docs[docID]
		if !ok {
			continue
		}
		list.GlobalFrequency -= entry.TermFrequency
		delete(list.Docs, docID)
		if len(list.Docs) == 0 {
			delete(idx.postings, term)
		}
	}
	delete(idx.documents, docID)
	return true
}

// Search returns a snapshot of the posting lists for terms, keyed by
// term; terms with no posting list are omitted.
func (idx *InvertedIndex) Search(terms []string) map[string]*PostingList {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(map[string]*PostingList, len(terms))
	for _, term := range terms {
		list, ok := idx.postings[term]
		if !ok {
			continue
		}
		out[term] = copyPostingList(list)
	}
	return out
}

func copyPostingList(list *PostingList) *PostingList {
	out := &PostingList{
		Term:            list.Term,
		GlobalFrequency: list.GlobalFrequency,
		Docs:            make(map[string]*PostingEntry, len(list.Docs)),
	}
	for id, entry := range list.Docs {
		fields := make(map[string]bool, len(entry.Fields))
		for f := range entry.Fields {
			fields[f] = true
		}
		positions := make([]int, len(entry.Positions))
		copy(positions, entry.Positions)
		out.Docs[id] = &PostingEntry{
			DocID:         entry.DocID,
			TermFrequency: entry.TermFrequency,
			Positions:     positions,
			Fields:        fields,
			Boost:         entry.Boost,
		}
	}
	return out
}

// Get returns the IndexedDocument for id, if present.
func (idx *InvertedIndex) Get(id string) (*IndexedDocument, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	doc, ok := idx.documents[id]
	return doc, ok
}

// Prefix enumerates terms starting with prefix, sorted by descending
// global frequency (ties broken lexically so the result is
// deterministic regardless of the underlying map's iteration order),
// capped at limit.
func (idx *InvertedIndex) Prefix(prefix string, limit int) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type candidate struct {
		term string
		freq int
	}
	var matches []candidate
	for term, list := range idx.postings {
		if len(term) >= len(prefix) && term[:len(prefix)] == prefix {
			matches = append(matches, candidate{term, list.GlobalFrequency})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].freq != matches[j].freq {
			return matches[i].freq > matches[j].freq
		}
		return matches[i].term < matches[j].term
	})
	if limit <= 0 || limit > len(matches) {
		limit = len(matches)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = matches[i].term
	}
	return out
}

// Stats returns a derived snapshot of index size and shape.
func (idx *InvertedIndex) Stats() IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var totalTerms int
	var lastUpdated time.Time
	for _, doc := range idx.documents {
		totalTerms += doc.TotalTerms
		if doc.LastModified.After(lastUpdated) {
			lastUpdated = doc.LastModified
		}
	}
	avg := 0.0
	if len(idx.documents) > 0 {
		avg = float64(totalTerms) / float64(len(idx.documents))
	}
	return IndexStats{
		TotalDocuments:        len(idx.documents),
		UniqueTerms:           len(idx.postings),
		TotalTerms:            totalTerms,
		AverageDocumentLength: avg,
		EstimatedByteSize:     idx.estimateByteSizeLocked(),
		LastUpdated:           lastUpdated,
	}
}

func (idx *InvertedIndex) estimateByteSizeLocked() int64 {
	var size int64
	for term, list := range idx.postings {
		size += int64(len(term))
		for range list.Docs {
			size += 64 // rough fixed overhead per posting entry
		}
	}
	for id, doc := range idx.documents {
		size += int64(len(id))
		size += int64(len(doc.TermFrequency)) * 16
	}
	return size
}

// Optimize compacts posting lists: it drops any posting entry whose
// term frequency has decayed to zero (left behind by callers mutating
// entries directly rather than through Remove) and re-slices each
// entry's Positions to drop unused capacity, without rebuilding the
// index from scratch (Design Note resolution of "optimizeIndex"
// semantics: compaction, not rebuild, not a no-op).
func (idx *InvertedIndex) Optimize() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for term, list := range idx.postings {
		for docID, entry := range list.Docs {
			if entry.TermFrequency <= 0 {
				delete(list.Docs, docID)
				continue
			}
			if len(entry.Positions) > 0 {
				trimmed := make([]int, len(entry.Positions))
				copy(trimmed, entry.Positions)
				entry.Positions = trimmed
			}
		}
		if len(list.Docs) == 0 {
			delete(idx.postings, term)
		}
	}
}

// Export serializes the index under a versioned schema tag for
// snapshotting.
func (idx *InvertedIndex) Export() ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := exportedIndex{Version: exportSchemaVersion}
	for _, list := range idx.postings {
		el := exportedPostingList{Term: list.Term, GlobalFrequency: list.GlobalFrequency}
		for _, entry := range list.Docs {
			fields := make([]string, 0, len(entry.Fields))
			for f := range entry.Fields {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			el.Docs = append(el.Docs, exportedEntry{
				DocID:         entry.DocID,
				TermFrequency: entry.TermFrequency,
				Positions:     entry.Positions,
				Fields:        fields,
				Boost:         entry.Boost,
			})
		}
		out.Postings = append(out.Postings, el)
	}
	for _, doc := range idx.documents {
		out.Documents = append(out.Documents, exportedDocument{
			ID:            doc.ID,
			FieldLengths:  doc.FieldLengths,
			TotalTerms:    doc.TotalTerms,
			TermFrequency: doc.TermFrequency,
			LastModified:  doc.LastModified,
		})
	}
	return json.Marshal(out)
}

// Import replaces the index's contents from data produced by Export.
// An incompatible schema version fails loudly rather than silently
// degrading.
func (idx *InvertedIndex) Import(data []byte) error {
	var in exportedIndex
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("index: import decode failed: %w", err)
	}
	if in.Version != exportSchemaVersion {
		return fmt.Errorf("index: import schema version %d incompatible with %d", in.Version, exportSchemaVersion)
	}

	postings := make(map[string]*PostingList, len(in.Postings))
	for _, el := range in.Postings {
		list := &PostingList{Term: el.Term, GlobalFrequency: el.GlobalFrequency, Docs: make(map[string]*PostingEntry, len(el.Docs))}
		for _, ee := range el.Docs {
			fields := make(map[string]bool, len(ee.Fields))
			for _, f := range ee.Fields {
				fields[f] = true
			}
			list.Docs[ee.DocID] = &PostingEntry{
				DocID:         ee.DocID,
				TermFrequency: ee.TermFrequency,
				Positions:     ee.Positions,
				Fields:        fields,
				Boost:         ee.Boost,
			}
		}
		postings[el.Term] = list
	}

	documents := make(map[string]*IndexedDocument, len(in.Documents))
	for _, ed := range in.Documents {
		documents[ed.ID] = &IndexedDocument{
			ID:            ed.ID,
			FieldLengths:  ed.FieldLengths,
			TotalTerms:    ed.TotalTerms,
			TermFrequency: ed.TermFrequency,
			LastModified:  ed.LastModified,
		}
	}

	idx.mu.Lock()
	idx.postings = postings
	idx.documents = documents
	idx.mu.Unlock()
	return nil
}
