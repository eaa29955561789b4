// SPDX-License-Identifier: Apache-2.0

package sqltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferApplySingleEdit(t *testing.T) {
	t.Parallel()

	b := NewBuffer("select 1;\nselect 2;\n")
	err := b.Apply([]Edit{{
		Range:   Range{Start: Position{Line: 1, Character: 7}, End: Position{Line: 1, Character: 8}},
		NewText: "3",
	}})
	require.NoError(t, err)
	assert.Equal(t, "select 1;\nselect 3;\n", b.Text())
}

func TestBufferApplyBatchSeesPriorEdits(t *testing.T) {
	t.Parallel()

	b := NewBuffer("abcdef")
	err := b.Apply([]Edit{
		{Range: Range{Start: Position{0, 0}, End: Position{0, 1}}, NewText: "XY"},
		{Range: Range{Start: Position{0, 1}, End: Position{0, 2}}, NewText: "Z"},
	})
	require.NoError(t, err)
	// After edit 1: "XYbcdef". Edit 2 applies to the *new* text, replacing
	// index [1,2) ("Y") with "Z".
	assert.Equal(t, "XZbcdef", b.Text())
}

func TestBufferApplyEmptyBatchIsIdentity(t *testing.T) {
	t.Parallel()

	b := NewBuffer("select 1;")
	err := b.Apply(nil)
	require.NoError(t, err)
	assert.Equal(t, "select 1;", b.Text())
}

func TestBufferApplyInvalidRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		edit Edit
	}{
		{
			name: "start past end of buffer",
			edit: Edit{Range: Range{Start: Position{5, 0}, End: Position{5, 0}}, NewText: "x"},
		},
		{
			name: "end precedes start on same line",
			edit: Edit{Range: Range{Start: Position{0, 3}, End: Position{0, 1}}, NewText: "x"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := NewBuffer("select 1;")
			err := b.Apply([]Edit{tc.edit})
			var invalid InvalidRangeError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

// naiveApply applies edits to text through a fresh Buffer and returns the
// resulting text; the test below compares it with a hand-computed result.
func naiveApply(text string, edits []Edit) (string, error) {
	b := NewBuffer(text)
	if err := b.Apply(edits); err != nil {
		return "", err
	}
	return b.Text(), nil
}

func TestBufferApplyMultiLineEditBatch(t *testing.T) {
	t.Parallel()

	text := "select a, b\nfrom t\nwhere a = 1;"
	edits := []Edit{
		{Range: Range{Start: Position{0, 7}, End: Position{0, 8}}, NewText: "x"},
		{Range: Range{Start: Position{2, 0}, End: Position{2, 7}}, NewText: "where b"},
	}
	got, err := naiveApply(text, edits)
	require.NoError(t, err)

	want := "select x, b\nfrom t\nwhere b = 1;"
	assert.Equal(t, want, got)
}
