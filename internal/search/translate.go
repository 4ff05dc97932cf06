// Package search converts saved forms into catalog query requests.
package search

import (
	"strings"

	"github.com/intrigue/searchforms/internal/forms"
)

const (
	// DefaultSource is searched when a form names no sources.
	DefaultSource = "ddf.distribution"

	// AllFields is the detail level meaning "no attribute restriction".
	AllFields = "All Fields"
)

// Direction is a sort direction as the catalog schema declares it.
type Direction string

const (
	Asc        Direction = "asc"
	Ascending  Direction = "ascending"
	Desc       Direction = "desc"
	Descending Direction = "descending"
)

// Valid reports whether d is one of the four schema values. Translate does
// not call it; sort strings are split, never checked.
func (d Direction) Valid() bool {
	switch d {
	case Asc, Ascending, Desc, Descending:
		return true
	}
	return false
}

// Sort is one decoded "attribute,direction" pair.
type Sort struct {
	Attribute string `json:"attribute"`
	Direction string `json:"direction"`
}

// Request is the query request handed to an executor.
type Request struct {
	FilterTree  forms.FilterTree `json:"filterTree,omitempty"`
	Srcs        []string         `json:"srcs"`
	Sorts       []Sort           `json:"sorts"`
	DetailLevel string           `json:"detail_level,omitempty"`
}

// Translate builds the request for a form. It never fails: missing fields
// fall back to their defaults and the filter tree is passed through as is.
func Translate(f forms.Form) Request {
	srcs := f.Sources
	if len(srcs) == 0 {
		srcs = []string{DefaultSource}
	}

	sorts := make([]Sort, 0, len(f.Sorts))
	for _, s := range f.Sorts {
		sorts = append(sorts, DecodeSort(s))
	}

	detail := f.DetailLevel
	if detail == AllFields {
		detail = ""
	}

	return Request{
		FilterTree:  f.FilterTree,
		Srcs:        srcs,
		Sorts:       sorts,
		DetailLevel: detail,
	}
}

// DecodeSort splits "<attribute>,<direction>" at the last comma, so attribute
// names may themselves contain commas. A string with no comma decodes to an
// empty attribute and the whole string as direction.
func DecodeSort(s string) Sort {
	i := strings.LastIndex(s, ",")
	if i < 0 {
		return Sort{Attribute: "", Direction: s}
	}
	return Sort{Attribute: s[:i], Direction: s[i+1:]}
}

// EncodeSort is the inverse of DecodeSort for well-formed pairs.
func EncodeSort(s Sort) string {
	return s.Attribute + "," + s.Direction
}
