// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aclements/go-markres/tooltip"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const scatter = `{
	"type": "point",
	"encode": {"x": "a", "y": "b"}
}`

const rows = `[{"a": 1, "b": 2}, {"a": 3, "b": 4}]`

func TestResolve(t *testing.T) {
	specPath := writeTemp(t, "scatter.json", scatter)
	dataPath := writeTemp(t, "rows.json", rows)
	out, err := run(t, "", "resolve", "--width", "100", "--height", "100", "--scales", "-d", dataPath, specPath)
	require.NoError(t, err)

	var res resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.Session)
	require.Len(t, res.Marks, 1)
	m := res.Marks[0]
	assert.Equal(t, "mark0", m.Key)
	assert.Equal(t, "point", m.Kind)
	require.Len(t, m.Primitives, 2)
	p0, p1 := m.Primitives[0].Points[0], m.Primitives[1].Points[0]
	assert.InDelta(t, 0, p0.X, 1e-9)
	assert.InDelta(t, 100, p0.Y, 1e-9)
	assert.InDelta(t, 100, p1.X, 1e-9)
	assert.InDelta(t, 0, p1.Y, 1e-9)
	assert.Equal(t, "linear", res.Scales["x"].Type)
}

func TestResolveYAMLStdin(t *testing.T) {
	const doc = `
children:
  - type: interval
    data:
      - {genre: a, sold: 3}
      - {genre: b, sold: 5}
    encode:
      x: genre
      y: sold
`
	// The extension selects YAML.
	specPath := writeTemp(t, "bars.yaml", doc)
	out, err := run(t, "", "resolve", specPath)
	require.NoError(t, err)
	var res resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Marks, 1)
	assert.Len(t, res.Marks[0].Primitives, 2)

	out, err = run(t, rows, "resolve", "-d", "-", writeTemp(t, "s.json", scatter))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Marks[0].Primitives, 2)
}

func TestResolveCSV(t *testing.T) {
	dataPath := writeTemp(t, "rows.csv", "a,b\n1,2\n3,4\n")
	out, err := run(t, "", "resolve", "--width", "100", "--height", "100", "-d", dataPath, writeTemp(t, "s.json", scatter))
	require.NoError(t, err)
	var res resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Marks[0].Primitives, 2)
	assert.InDelta(t, 100, res.Marks[0].Primitives[1].Points[0].X, 1e-9)
}

func TestData(t *testing.T) {
	path := writeTemp(t, "sales.csv", "genre,sold\na,3\nb,5\n")
	out, err := run(t, "", "data", path)
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^genre +sold$`, out)
	assert.Regexp(t, `(?m)^b +5$`, out)

	out, err = run(t, "", "data", "--schema", path)
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^genre +string$`, out)
	assert.Regexp(t, `(?m)^sold +number$`, out)

	out, err = run(t, rows, "data", "-s", "-")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^a +number$`, out)

	_, err = run(t, "", "data", writeTemp(t, "bad.csv", "a,b\n1\n"))
	assert.Error(t, err)
}

func TestResolveErrors(t *testing.T) {
	_, err := run(t, "", "resolve", writeTemp(t, "bad.json", `{"type": "pie"}`))
	assert.Error(t, err)

	_, err = run(t, "", "resolve", "-d", writeTemp(t, "rows.json", rows), writeTemp(t, "s.json", `{"type": "point", "encode": {"x": "missing"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field_not_found")

	_, err = run(t, "", "resolve", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	_, err = run(t, "", "resolve")
	assert.Error(t, err)
}

func TestTooltip(t *testing.T) {
	specPath := writeTemp(t, "scatter.json", `{
		"type": "point",
		"encode": {"x": "a", "y": "b"},
		"tooltip": {"title": "name", "items": ["b"]}
	}`)
	dataPath := writeTemp(t, "rows.json", `[{"a": 1, "b": 2, "name": "p"}, {"a": 3, "b": 4500, "name": "q"}]`)
	out, err := run(t, "", "tooltip", "-d", dataPath, "--row", "1", specPath)
	require.NoError(t, err)
	var p tooltip.Payload
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "q", p.Title)
	require.Len(t, p.Items, 1)
	assert.Equal(t, "4,500", p.Items[0].Value)

	out, err = run(t, "", "tooltip", "-d", dataPath, "--row", "1", "--lang", "de", specPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "4.500", p.Items[0].Value)

	_, err = run(t, "", "tooltip", "-d", dataPath, "--row", "7", specPath)
	assert.Error(t, err)
	_, err = run(t, "", "tooltip", "-d", dataPath, "--mark", "2", specPath)
	assert.Error(t, err)
}

func TestTooltipDisabled(t *testing.T) {
	specPath := writeTemp(t, "s.json", `{"type": "point", "encode": {"x": "a"}, "tooltip": false}`)
	out, err := run(t, "", "tooltip", "-d", writeTemp(t, "rows.json", rows), specPath)
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestKinds(t *testing.T) {
	out, err := run(t, "", "kinds")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 30)
	assert.True(t, strings.HasPrefix(lines[0], "KIND"))
	assert.Contains(t, out, "treemap")
	assert.Regexp(t, `tree +own, polar ok`, out)

	out, err = run(t, "", "kinds", "-v")
	require.NoError(t, err)
	assert.Regexp(t, `wordCloud +own.*\btext\b`, out)
}

func TestConfigFile(t *testing.T) {
	cfg := writeTemp(t, "markres.yaml", "area:\n  width: 200\n  height: 50\n")
	out, err := run(t, "", "--config", cfg, "resolve", "-d", writeTemp(t, "rows.json", rows), writeTemp(t, "s.json", scatter))
	require.NoError(t, err)
	var res resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 200, res.Marks[0].Primitives[1].Points[0].X, 1e-9)

	bad := writeTemp(t, "bad.yaml", "area:\n  width: -5\n")
	_, err = run(t, "", "--config", bad, "kinds")
	assert.Error(t, err)
}
