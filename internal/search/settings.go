package search

import "strings"

// Settings mirrors the QuerySettingsInput GraphQL input.
type Settings struct {
	Src        string `json:"src,omitempty"`
	Federation string `json:"federation,omitempty"`
	Sorts      []Sort `json:"sorts,omitempty"`
	// Count is the page size.
	Count int `json:"count,omitempty"`
	// Start is 1-based.
	Start int    `json:"start,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Settings derives the GraphQL query settings for the first page of
// results. The input type carries a single src string, so sources are
// joined with commas. detail_level has no input field and is not sent.
func (r Request) Settings(count int) Settings {
	s := Settings{
		Src:   strings.Join(r.Srcs, ","),
		Sorts: r.Sorts,
		Start: 1,
	}
	if count > 0 {
		s.Count = count
	}
	return s
}

// Variables returns the operation variables for the metacards query.
func (r Request) Variables(count int) map[string]any {
	vars := map[string]any{
		"settings": r.Settings(count),
	}
	if r.FilterTree != nil {
		vars["filterTree"] = r.FilterTree
	}
	return vars
}
