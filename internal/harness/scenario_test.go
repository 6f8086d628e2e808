package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One upload"
pages:
  - { page_id: 10, slug: start }
flow:
  - op: create
    file: a
    page: 10
    name: a.txt
    blob: { hash: "01", size: 1, mime: text/plain }
assertions:
  - type: count
    file: a
    count: 1
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, int64(1), s.SiteID, "site defaults to 1")
	require.Len(t, s.Flow, 1)
	assert.Equal(t, OpCreate, s.Flow[0].Op)
	require.NotNil(t, s.Flow[0].Name)
	assert.Equal(t, "a.txt", *s.Flow[0].Name)
	assert.Equal(t, "text/plain", s.Flow[0].Blob.Mime)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
description: d
flow: [{ op: delete, file: a }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: n
flow: [{ op: delete, file: a }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: "description is required",
		},
		{
			name: "empty flow",
			yaml: `
name: n
description: d
flow: []
assertions: [{ type: count, file: a, count: 1 }]`,
			want: "flow list is required",
		},
		{
			name: "unknown op",
			yaml: `
name: n
description: d
flow: [{ op: purge, file: a }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: `unknown op "purge"`,
		},
		{
			name: "create without blob",
			yaml: `
name: n
description: d
flow: [{ op: create, file: a, page: 10, name: a.txt }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: "blob is required for create",
		},
		{
			name: "hide without revision",
			yaml: `
name: n
description: d
flow: [{ op: hide, file: a }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: "revision is required for hide",
		},
		{
			name: "bad token",
			yaml: `
name: n
description: d
flow: [{ op: delete, file: a, token: newest }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: "token must be head or stale",
		},
		{
			name: "bad expectation",
			yaml: `
name: n
description: d
flow: [{ op: delete, file: a, expect: GONE }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: `unknown expected outcome "GONE"`,
		},
		{
			name: "bad hash",
			yaml: `
name: n
description: d
flow: [{ op: update, file: a, blob: { hash: zz, size: 1, mime: x/y } }]
assertions: [{ type: count, file: a, count: 1 }]`,
			want: "blob.hash must be hex",
		},
		{
			name: "changes length mismatch",
			yaml: `
name: n
description: d
flow: [{ op: delete, file: a }]
assertions: [{ type: history, file: a, types: [create], changes: [[], []] }]`,
			want: "changes must have one entry per revision",
		},
		{
			name: "unknown assertion",
			yaml: `
name: n
description: d
flow: [{ op: delete, file: a }]
assertions: [{ type: trace_order }]`,
			want: `unknown assertion type "trace_order"`,
		},
		{
			name: "zero count",
			yaml: `
name: n
description: d
flow: [{ op: delete, file: a }]
assertions: [{ type: count, file: a }]`,
			want: "count must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "upload.golden"),
		GoldenPath(filepath.Join("scenarios", "upload.yaml")))
}

func TestWriteAndCompareGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden", "x.golden")
	require.NoError(t, WriteGolden(path, []byte(`{"a":1}`)))

	ok, err := CompareGolden(path, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CompareGolden(path, []byte(`{"a":2}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
