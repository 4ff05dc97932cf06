package visualization

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/intrigue/searchforms/internal/graphql"
)

// Built-in visualization ids.
const (
	Table     = "table"
	Histogram = "histogram"
	Map       = "map"
)

// DefaultHistogramAttribute is counted when no attribute is requested.
const DefaultHistogramAttribute = "source-id"

// RegisterBuiltins adds the table, histogram and map visualizations.
func RegisterBuiltins(r *Registry) error {
	builtins := []struct {
		id, title string
		renderer  Renderer
	}{
		{Table, "Table", tableRenderer{}},
		{Histogram, "Histogram", histogramRenderer{}},
		{Map, "Map", mapRenderer{}},
	}
	for _, b := range builtins {
		renderer := b.renderer
		if err := r.Register(b.id, b.title, func(ctx context.Context) (Renderer, error) {
			return renderer, nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// TableView lists results as rows of attribute values.
type TableView struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type tableRenderer struct{}

func (tableRenderer) Render(results []graphql.QueryResponseResult, opts Options) (any, error) {
	columns := opts.Columns
	if len(columns) == 0 {
		columns = collectColumns(results)
	}

	rows := make([][]any, 0, len(results))
	for _, r := range results {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = r.Metacard[c]
		}
		rows = append(rows, row)
	}
	return TableView{Columns: columns, Rows: rows}, nil
}

// collectColumns returns every attribute present, id and title first and
// the rest alphabetically.
func collectColumns(results []graphql.QueryResponseResult) []string {
	seen := make(map[string]bool)
	for _, r := range results {
		for k := range r.Metacard {
			seen[k] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for _, lead := range []string{"id", "title"} {
		if seen[lead] {
			columns = append(columns, lead)
			delete(seen, lead)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

// Bucket is one histogram value and its count.
type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// HistogramView counts the values of one attribute. Multi-valued
// attributes count each value.
type HistogramView struct {
	Attribute string   `json:"attribute"`
	Buckets   []Bucket `json:"buckets"`
	Missing   int      `json:"missing"`
}

type histogramRenderer struct{}

func (histogramRenderer) Render(results []graphql.QueryResponseResult, opts Options) (any, error) {
	attr := opts.Attribute
	if attr == "" {
		attr = DefaultHistogramAttribute
	}

	counts := make(map[string]int)
	missing := 0
	for _, r := range results {
		v, ok := r.Metacard[attr]
		if !ok || v == nil {
			missing++
			continue
		}
		switch vals := v.(type) {
		case []any:
			for _, item := range vals {
				counts[fmt.Sprint(item)]++
			}
		case []string:
			for _, item := range vals {
				counts[item]++
			}
		default:
			counts[fmt.Sprint(v)]++
		}
	}

	buckets := make([]Bucket, 0, len(counts))
	for v, c := range counts {
		buckets = append(buckets, Bucket{Value: v, Count: c})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})

	return HistogramView{Attribute: attr, Buckets: buckets, Missing: missing}, nil
}

// Feature is a GeoJSON Feature with a Point geometry.
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON Point.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureCollection is the map payload. Skipped counts results without a
// usable point location.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Skipped  int       `json:"skipped"`
}

type mapRenderer struct{}

func (mapRenderer) Render(results []graphql.QueryResponseResult, opts Options) (any, error) {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, r := range results {
		lon, lat, ok := pointOf(r.Metacard["location"])
		if !ok {
			fc.Skipped++
			continue
		}
		id, _ := r.Metacard["id"].(string)
		props := map[string]any{}
		if title, ok := r.Metacard["title"]; ok {
			props["title"] = title
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			ID:         id,
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{lon, lat}},
			Properties: props,
		})
	}
	return fc, nil
}

// pointOf reads a WKT POINT string or a GeoJSON Point object.
func pointOf(v any) (lon, lat float64, ok bool) {
	switch loc := v.(type) {
	case string:
		return parseWKTPoint(loc)
	case map[string]any:
		if loc["type"] != "Point" {
			return 0, 0, false
		}
		coords, isList := loc["coordinates"].([]any)
		if !isList || len(coords) < 2 {
			return 0, 0, false
		}
		lon, ok1 := coords[0].(float64)
		lat, ok2 := coords[1].(float64)
		return lon, lat, ok1 && ok2
	default:
		return 0, 0, false
	}
}

func parseWKTPoint(s string) (lon, lat float64, ok bool) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "POINT") {
		return 0, 0, false
	}
	open := strings.IndexByte(s, '(')
	closing := strings.LastIndexByte(s, ')')
	if open < 0 || closing < open {
		return 0, 0, false
	}

	parts := strings.Fields(s[open+1 : closing])
	if len(parts) < 2 {
		return 0, 0, false
	}
	lon, err1 := strconv.ParseFloat(parts[0], 64)
	lat, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lon, lat, true
}
