package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/revlog/internal/model"
)

func baseSnapshot() model.Snapshot {
	return model.Snapshot{
		PageID: 10,
		Name:   "a.png",
		Blob: model.Blob{
			Hash:     []byte{0xaa},
			SizeHint: 1,
			MimeHint: "image/png",
		},
		Licensing: model.MustLicensing(`{"license":"CC0"}`),
	}
}

func TestComputeChanges(t *testing.T) {
	tests := []struct {
		name string
		body FileRevisionBody
		want []model.ChangeField
	}{
		{"nothing provided", FileRevisionBody{}, []model.ChangeField{}},
		{"same values", FileRevisionBody{PageID: model.Set(int64(10)), Name: model.Set("a.png")}, []model.ChangeField{}},
		{"name only", FileRevisionBody{Name: model.Set("b.png")}, []model.ChangeField{model.ChangeName}},
		{
			"all fields",
			FileRevisionBody{
				Licensing: model.Set(model.MustLicensing(`{"license":"CC-BY"}`)),
				Blob:      model.Set(model.Blob{Hash: []byte{0xbb}, SizeHint: 2, MimeHint: "image/png"}),
				Name:      model.Set("b.png"),
				PageID:    model.Set(int64(11)),
			},
			model.ChangeOrder,
		},
		{
			"size alone changes blob",
			FileRevisionBody{Blob: model.Set(model.Blob{Hash: []byte{0xaa}, SizeHint: 9, MimeHint: "image/png"})},
			[]model.ChangeField{model.ChangeBlob},
		},
		{
			"licensing key order is not a change",
			FileRevisionBody{Licensing: model.Set(model.Licensing(`{ "license" : "CC0" }`))},
			[]model.ChangeField{},
		},
		{
			"empty name is a change",
			FileRevisionBody{Name: model.Set("")},
			[]model.ChangeField{model.ChangeName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := ComputeChanges(baseSnapshot(), tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeChanges_AdoptsNewValues(t *testing.T) {
	current := baseSnapshot()
	_, next, err := ComputeChanges(current, FileRevisionBody{
		Name:      model.Set("b.png"),
		Licensing: model.Set(model.Licensing(`{"b":1,"a":2}`)),
	})
	require.NoError(t, err)

	assert.Equal(t, "b.png", next.Name)
	assert.Equal(t, `{"a":2,"b":1}`, string(next.Licensing))
	assert.Equal(t, current.Blob, next.Blob)
	assert.Equal(t, "a.png", current.Name, "input snapshot untouched")
}

func TestComputeChanges_InvalidLicensing(t *testing.T) {
	_, _, err := ComputeChanges(baseSnapshot(), FileRevisionBody{
		Licensing: model.Set(model.Licensing(`{"ratio":0.5}`)),
	})
	assert.Error(t, err)
}
