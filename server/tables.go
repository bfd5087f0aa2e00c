package server

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultPageSize = 20

// table is an in-memory collection of one kind of imported row, keyed by a
// natural key so that importing a row again updates it in place.
type table[T any] struct {
	mu   sync.RWMutex
	seq  int
	keys map[string]int // natural key to sequence number
	rows map[int]T
}

func newTable[T any]() *table[T] {
	return &table[T]{
		keys: make(map[string]int),
		rows: make(map[int]T),
	}
}

// upsert stores the row build returns for key and reports whether the key was
// new. build receives a sequence number that stays the same across updates.
func (t *table[T]) upsert(key string, build func(seq int) T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key = strings.ToLower(key)
	seq, exists := t.keys[key]
	if !exists {
		t.seq++
		seq = t.seq
		t.keys[key] = seq
	}
	t.rows[seq] = build(seq)
	return !exists
}

// filter returns the rows keep accepts, oldest first.
func (t *table[T]) filter(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seqs := make([]int, 0, len(t.rows))
	for seq, row := range t.rows {
		if keep == nil || keep(row) {
			seqs = append(seqs, seq)
		}
	}
	sort.Ints(seqs)

	out := make([]T, len(seqs))
	for i, seq := range seqs {
		out[i] = t.rows[seq]
	}
	return out
}

// remove deletes the row match accepts and reports whether there was one.
func (t *table[T]) remove(match func(T) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, seq := range t.keys {
		if match(t.rows[seq]) {
			delete(t.keys, key)
			delete(t.rows, seq)
			return true
		}
	}
	return false
}

// rowID derives a stable id for a row from its kind and natural key.
func rowID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(kind+"/"+strings.ToLower(key))).String()
}

type listPage[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// writeList answers with a bare array, or with a {count, results} page when
// the page parameter is given.
func writeList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	page := queryInt(r, "page")
	if page == 0 {
		writeJSON(w, http.StatusOK, items)
		return
	}

	size := queryInt(r, "page_size")
	if size == 0 {
		size = defaultPageSize
	}
	start := (page - 1) * size
	if start > len(items) {
		writeError(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+size, len(items))
	writeJSON(w, http.StatusOK, listPage[T]{Count: len(items), Results: items[start:end]})
}

// containsFold reports whether any of fields contains term, ignoring case.
// An empty term matches everything.
func containsFold(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// dateRange holds YYYY-MM-DD bounds read from the query. Empty bounds are open.
type dateRange struct {
	from, to string
}

func parseDateRange(r *http.Request, fromKey, toKey string) (dateRange, error) {
	from, err := parseDateParam(r, fromKey)
	if err != nil {
		return dateRange{}, err
	}
	to, err := parseDateParam(r, toKey)
	if err != nil {
		return dateRange{}, err
	}
	return dateRange{from: from, to: to}, nil
}

// contains compares the date part of an ISO date or timestamp.
func (d dateRange) contains(value string) bool {
	if len(value) > 10 {
		value = value[:10]
	}
	if d.from != "" && value < d.from {
		return false
	}
	if d.to != "" && value > d.to {
		return false
	}
	return true
}

// countryFilter combines the caller's country scope with the country query
// parameter.
func countryFilter(r *http.Request) func(country string) bool {
	scope, wanted := countryScope(r), r.URL.Query().Get("country")
	return func(country string) bool {
		return sameCountry(scope, country) && sameCountry(wanted, country)
	}
}
