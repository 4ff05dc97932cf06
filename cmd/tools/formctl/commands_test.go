package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTranslate_Stdin(t *testing.T) {
	out, err := run(t, `{"sorts":["title,asc"],"detail_level":"All Fields"}`, "translate")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []any{"ddf.distribution"}, got["srcs"])
	assert.Equal(t, []any{map[string]any{"attribute": "title", "direction": "asc"}}, got["sorts"])
	assert.NotContains(t, got, "detail_level")
}

func TestTranslate_File(t *testing.T) {
	path := writeFile(t, "form.json", `{"sources":["a","b"],"filterTree":{"type":"AND","filters":[]}}`)

	out, err := run(t, "", "translate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"filterTree"`)
	assert.Contains(t, out, `"b"`)
}

func TestTranslate_EmptyInput(t *testing.T) {
	_, err := run(t, "  ", "translate")
	assert.ErrorContains(t, err, "empty input")
}

func TestValidate(t *testing.T) {
	good := writeFile(t, "good.json", `{"title":"ok"}`)
	bad := writeFile(t, "bad.json", `{"sorts":"title,asc"}`)

	out, err := run(t, "", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "good.json: ok")

	out, err = run(t, "", "validate", good, bad)
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "bad.json: /sorts")
}

func TestSchema(t *testing.T) {
	out, err := run(t, "", "schema", "graphql")
	require.NoError(t, err)
	assert.Contains(t, out, "type Query")

	out, err = run(t, "", "schema", "form")
	require.NoError(t, err)
	assert.Contains(t, out, `"filterTree"`)

	_, err = run(t, "", "schema", "yaml")
	assert.Error(t, err)
}

func TestSearch_Offline(t *testing.T) {
	out, err := run(t, `{"sources":["vault"]}`, "search", "--offline-count", "3")
	require.NoError(t, err)

	var resp struct {
		Results []struct {
			Metacard map[string]any `json:"metacard"`
		} `json:"results"`
		Status struct {
			Count      int  `json:"count"`
			Successful bool `json:"successful"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 3)
	assert.Equal(t, 3, resp.Status.Count)
	assert.True(t, resp.Status.Successful)
	assert.Equal(t, "vault", resp.Results[0].Metacard["source-id"])
}

func TestSearch_CatalogNeedsEndpoint(t *testing.T) {
	_, err := run(t, `{}`, "search", "--mode", "catalog")
	assert.ErrorContains(t, err, "endpoint")
}
