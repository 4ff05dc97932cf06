// Package forms defines the saved-search form model shared by the editor API,
// the stores and the search translator.
package forms

import (
	"encoding/json"
	"sort"
	"time"
)

// FilterTree is a nested AND/OR expression owned by the filter builder.
// It is carried as raw JSON and never interpreted here.
type FilterTree = json.RawMessage

// Form is a saved search (QueryType on the wire). Every field is optional.
type Form struct {
	ID          string            `json:"id,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Owner       string            `json:"owner,omitempty"`
	FilterTree  FilterTree        `json:"filterTree,omitempty"`
	Sources     []string          `json:"sources,omitempty"`
	Sorts       []string          `json:"sorts,omitempty"`
	DetailLevel string            `json:"detail_level,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Created     time.Time         `json:"created"`
	Modified    time.Time         `json:"modified"`
}

// DefaultFilter is the blank leaf predicate a new form starts with.
var DefaultFilter = map[string]any{
	"type":     "ILIKE",
	"property": "anyText",
	"value":    "",
}

// DefaultFilterTree returns a fresh AND node holding a single DefaultFilter.
func DefaultFilterTree() FilterTree {
	leaf := make(map[string]any, len(DefaultFilter))
	for k, v := range DefaultFilter {
		leaf[k] = v
	}
	data, _ := json.Marshal(map[string]any{
		"type":    "AND",
		"filters": []any{leaf},
	})
	return data
}

// New returns a form ready for the "add" dialog.
func New() Form {
	return Form{FilterTree: DefaultFilterTree()}
}

// Clone returns a deep copy so stores never share slices with callers.
func (f Form) Clone() Form {
	out := f
	if f.FilterTree != nil {
		out.FilterTree = append(FilterTree(nil), f.FilterTree...)
	}
	if f.Sources != nil {
		out.Sources = append([]string(nil), f.Sources...)
	}
	if f.Sorts != nil {
		out.Sorts = append([]string(nil), f.Sorts...)
	}
	if f.Metadata != nil {
		out.Metadata = make(map[string]string, len(f.Metadata))
		for k, v := range f.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// SortByModified orders forms most recently modified first, in place.
// Forms with equal timestamps keep their relative order.
func SortByModified(list []Form) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Modified.After(list[j].Modified)
	})
}
