package main

import (
	"encoding/json"
	"testing"

	"github.com/codepractice/codepractice-backend/internal/model"
	"github.com/codepractice/codepractice-backend/internal/sequencer"
	"github.com/codepractice/codepractice-backend/internal/textcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeqKey(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`7`, 7, true},
		{`"12"`, 12, true},
		{`" 3 "`, 3, true},
		{`4.5`, 4.5, true},
		{`0`, 0, true},
		{`-2`, -2, true},
		{`"abc"`, 0, false},
		{`"NaN"`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
		{``, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := seqKey(json.RawMessage(tt.raw))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExportRanksNumericIDs(t *testing.T) {
	raw := `[
		{"id": 3, "title": "C"},
		{"id": 0, "title": "Zero"},
		{"id": "none", "title": "Apple"},
		{"id": 2.5, "title": "Half"},
		{"id": 2, "title": "B"},
		{"id": -3, "title": "Negative"}
	]`

	got, err := parseExport([]byte(raw))
	require.NoError(t, err)

	ordered := sequencer.Order(got)
	titles := make([]string, 0, len(ordered))
	for _, p := range ordered {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"Negative", "Zero", "B", "Half", "C", "Apple"}, titles)
	assert.Equal(t, 5, *ordered[4].ID)
	assert.Nil(t, ordered[5].ID)
}

func TestParseExportDecodesText(t *testing.T) {
	raw := `[
		{"id": "2", "title": " Two Sum ", "topic": "Array", "difficulty": 1,
		 "constraints": "` + textcodec.Encode("1 <= n <= 10^4") + `",
		 "examples": [{"input": "[2,7]", "output": "[0,1]"}],
		 "sampleCode": {"python": "` + textcodec.Encode("def solve():\n    pass") + `", "c": "not base64!"}},
		{"title": "Untitled", "difficulty": "3"}
	]`

	got, err := parseExport([]byte(raw))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, model.IntPtr(1), got[0].ID)
	assert.Equal(t, "Two Sum", got[0].Title)
	assert.Equal(t, model.Difficulty("1"), got[0].Difficulty)
	assert.Equal(t, "1 <= n <= 10^4", got[0].Constraints)
	assert.Equal(t, "def solve():\n    pass", got[0].SampleCode.Python)
	assert.Equal(t, "not base64!", got[0].SampleCode.C)
	assert.Len(t, got[0].Examples, 1)

	assert.Nil(t, got[1].ID)
	assert.Equal(t, model.Difficulty("3"), got[1].Difficulty)
	assert.NotNil(t, got[1].Examples)
}

func TestParseExportRejectsMalformed(t *testing.T) {
	_, err := parseExport([]byte(`{"id": 1}`))
	assert.Error(t, err)
}
