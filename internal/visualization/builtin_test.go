package visualization

import (
	"testing"

	"github.com/intrigue/searchforms/internal/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(metacards ...map[string]any) []graphql.QueryResponseResult {
	out := make([]graphql.QueryResponseResult, 0, len(metacards))
	for _, m := range metacards {
		out = append(out, graphql.QueryResponseResult{Metacard: m})
	}
	return out
}

func TestTableRenderer(t *testing.T) {
	rs := results(
		map[string]any{"id": "1", "title": "A", "zeta": 1},
		map[string]any{"id": "2", "alpha": true},
	)

	out, err := tableRenderer{}.Render(rs, Options{})
	require.NoError(t, err)
	table := out.(TableView)
	assert.Equal(t, []string{"id", "title", "alpha", "zeta"}, table.Columns)
	assert.Equal(t, [][]any{{"1", "A", nil, 1}, {"2", nil, true, nil}}, table.Rows)

	out, err = tableRenderer{}.Render(rs, Options{Columns: []string{"title"}})
	require.NoError(t, err)
	assert.Equal(t, TableView{Columns: []string{"title"}, Rows: [][]any{{"A"}, {nil}}}, out)

	out, err = tableRenderer{}.Render(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, TableView{Columns: []string{}, Rows: [][]any{}}, out)
}

func TestHistogramRenderer(t *testing.T) {
	rs := results(
		map[string]any{"source-id": "local"},
		map[string]any{"source-id": "remote"},
		map[string]any{"source-id": "local"},
		map[string]any{"title": "no source"},
		map[string]any{"metacard-tags": []any{"resource", "workspace"}},
		map[string]any{"metacard-tags": []string{"resource"}},
	)

	out, err := histogramRenderer{}.Render(rs, Options{})
	require.NoError(t, err)
	assert.Equal(t, HistogramView{
		Attribute: "source-id",
		Buckets:   []Bucket{{Value: "local", Count: 2}, {Value: "remote", Count: 1}},
		Missing:   3,
	}, out)

	out, err = histogramRenderer{}.Render(rs, Options{Attribute: "metacard-tags"})
	require.NoError(t, err)
	assert.Equal(t, HistogramView{
		Attribute: "metacard-tags",
		Buckets:   []Bucket{{Value: "resource", Count: 2}, {Value: "workspace", Count: 1}},
		Missing:   4,
	}, out)
}

func TestMapRenderer(t *testing.T) {
	rs := results(
		map[string]any{"id": "1", "title": "wkt", "location": "POINT(10.5 -20.25)"},
		map[string]any{"id": "2", "location": "point (1 2)"},
		map[string]any{"id": "3", "location": map[string]any{"type": "Point", "coordinates": []any{3.0, 4.0}}},
		map[string]any{"id": "4", "location": "LINESTRING(0 0, 1 1)"},
		map[string]any{"id": "5"},
		map[string]any{"id": "6", "location": "POINT(x y)"},
	)

	out, err := mapRenderer{}.Render(rs, Options{})
	require.NoError(t, err)
	fc := out.(FeatureCollection)

	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, 3, fc.Skipped)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, [2]float64{10.5, -20.25}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "wkt", fc.Features[0].Properties["title"])
	assert.Equal(t, [2]float64{1, 2}, fc.Features[1].Geometry.Coordinates)
	assert.Equal(t, "3", fc.Features[2].ID)
	assert.Equal(t, "Point", fc.Features[2].Geometry.Type)
}
