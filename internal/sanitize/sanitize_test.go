// SPDX-License-Identifier: Apache-2.0

package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifierGapInsertsPlaceholder(t *testing.T) {
	t.Parallel()

	text := "select  from t;"
	offset := len("select ")
	r := Sanitize(text, offset)

	assert.Contains(t, r.Text, Placeholder)
	assert.Equal(t, offset, r.AdjustedOffset)
}

func TestSanitizeLeavesMidTokenTextUntouched(t *testing.T) {
	t.Parallel()

	text := "select na from t;"
	offset := len("select na")
	r := Sanitize(text, offset)

	assert.Equal(t, text, r.Text)
	assert.Equal(t, ByteRange{Start: len("select "), End: offset}, r.ReplacementRange)
}

func TestSanitizeUnterminatedQuoteClosesIt(t *testing.T) {
	t.Parallel()

	text := `select "em from t;`
	offset := len(`select "em`)
	r := Sanitize(text, offset)

	assert.Equal(t, `select "em" from t;`, r.Text)
	assert.Equal(t, offset, r.AdjustedOffset)
	assert.Equal(t, len(`select "`), r.ReplacementRange.Start)
	assert.Equal(t, offset, r.ReplacementRange.End)
}

func TestSanitizeQualifiedQuotedColumnInsertsPlaceholderAfterDot(t *testing.T) {
	t.Parallel()

	text := `select * from "private".`
	offset := len(text) // cursor right after the trailing dot
	r := Sanitize(text, offset)

	assert.Contains(t, r.Text, Placeholder)
	assert.Equal(t, text+Placeholder, r.Text)
}

func TestSanitizeEmptyTextIsTotal(t *testing.T) {
	t.Parallel()

	r := Sanitize("", 0)
	assert.Equal(t, 0, r.AdjustedOffset)
}

func TestSanitizeClampsOutOfRangeOffset(t *testing.T) {
	t.Parallel()

	text := "select 1;"
	r := Sanitize(text, 1000)
	assert.Equal(t, len(text), r.AdjustedOffset)

	r = Sanitize(text, -5)
	assert.Equal(t, 0, r.AdjustedOffset)
}
