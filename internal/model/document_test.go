package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/subtext/internal/command"
)

func TestApplyPutsAndRemoves(t *testing.T) {
	d := NewDocument()

	first := &command.ModelUpdate{}
	first.Put("lines/0/translation", "bonjour")
	first.Put("lines/1/translation", "au revoir")
	require.NoError(t, d.Apply(context.Background(), []*command.ModelUpdate{first}))

	value, ok := d.Get("lines/0/translation")
	require.True(t, ok)
	assert.Equal(t, "bonjour", value)
	assert.Equal(t, 2, d.Len())

	second := &command.ModelUpdate{}
	second.Remove("lines/0/translation")
	require.NoError(t, d.Apply(context.Background(), []*command.ModelUpdate{second}))

	_, ok = d.Get("lines/0/translation")
	assert.False(t, ok)
	assert.Equal(t, 1, d.Len())
}

func TestApplyConsumesUpdatesInOrder(t *testing.T) {
	d := NewDocument()

	first := &command.ModelUpdate{}
	first.Put("lines/0/translation", "draft")
	second := &command.ModelUpdate{}
	second.Put("lines/0/translation", "final")

	require.NoError(t, d.Apply(context.Background(), []*command.ModelUpdate{first, second}))

	value, ok := d.Get("lines/0/translation")
	require.True(t, ok)
	assert.Equal(t, "final", value)
}

func TestSnapshotIsACopy(t *testing.T) {
	d := NewDocument()

	update := &command.ModelUpdate{}
	update.Put("lines/0/translation", "bonjour")
	require.NoError(t, d.Apply(context.Background(), []*command.ModelUpdate{update}))

	snapshot := d.Snapshot()
	snapshot["lines/0/translation"] = "tampered"

	value, _ := d.Get("lines/0/translation")
	assert.Equal(t, "bonjour", value)
}

func TestGetMissingPath(t *testing.T) {
	d := NewDocument()
	_, ok := d.Get("lines/99/translation")
	assert.False(t, ok)
}
