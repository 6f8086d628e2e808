package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingOutdater_RecordsInOrder(t *testing.T) {
	o := NewRecordingOutdater()
	ctx := context.Background()

	require.NoError(t, o.ProcessPageDisplace(ctx, 1, 10, "start"))
	require.NoError(t, o.ProcessPageEdit(ctx, 1, 11, "about"))

	assert.Equal(t, []OutdateCall{
		{Kind: "displace", SiteID: 1, PageID: 10, Slug: "start"},
		{Kind: "edit", SiteID: 1, PageID: 11, Slug: "about"},
	}, o.Calls())
}

func TestRecordingOutdater_Fail(t *testing.T) {
	o := NewRecordingOutdater()
	boom := errors.New("boom")
	o.Fail(boom)

	err := o.ProcessPageEdit(context.Background(), 1, 10, "start")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, o.Calls())

	o.Fail(nil)
	require.NoError(t, o.ProcessPageEdit(context.Background(), 1, 10, "start"))
	assert.Len(t, o.Calls(), 1)
}

func TestRecordingOutdater_CallsIsACopy(t *testing.T) {
	o := NewRecordingOutdater()
	require.NoError(t, o.ProcessPageEdit(context.Background(), 1, 10, "start"))

	calls := o.Calls()
	calls[0].Slug = "mutated"
	assert.Equal(t, "start", o.Calls()[0].Slug)

	o.Reset()
	assert.Empty(t, o.Calls())
}
