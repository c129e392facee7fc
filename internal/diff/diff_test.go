package diff

import (
	"strings"
	"testing"

	"patchwork/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextApplyRoundTrip(t *testing.T) {
	pairs := []struct {
		name string
		a, b string
	}{
		{"single char", `[["a",{"content":"b"}]]`, `[["a",{"content":"c"}]]`},
		{"append record", `[["x",{"content":"let a = 10;"}]]`, `[["x",{"content":"let a = 20;"}],["y",{"content":"boo"}]]`},
		{"percent", `[["a",{"content":"b"}]]`, `[["a",{"content":"b"}],["b",{"content":"50%"}]]`},
		{"plus and spaces", `a + b = c`, `a+b  =  c + d`},
		{"newlines", "\n  hello world\n  third line\n", "\n  Hello world, and this is a text\n  on multiple\n  lines.\n  third line"},
		{"from empty", "", `[["a",{"c":"x"}]]`},
		{"to empty", `[["a",{"c":"x"}]]`, ""},
		{"accents", `[["a",{"content":"cafe"}]]`, `[["a",{"content":"café crème"}]]`},
		{"cjk", `[["名前",{"content":"日本"}]]`, `[["名前",{"content":"日本語のテキスト"}]]`},
		{"emoji", `[["a",{"content":"ok 👍"}]]`, `[["a",{"content":"ok 🎉👍🏽 done"}]]`},
		{"mixed scripts", "Grüße, мир", "Grüße, мир! 世界 😀"},
		{
			"large replace",
			`[["a",{"c":"function a() { return \"hello\"; } // a rather long line of code"}]]`,
			`[["a",{"c":"import \"foo.js\""}]]`,
		},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			patch := Text(tt.a, tt.b)
			require.NotEmpty(t, patch)
			assert.True(t, strings.HasPrefix(patch, "@@ -"))

			got, err := Apply(patch, tt.a)
			require.NoError(t, err)
			assert.Equal(t, tt.b, got)
		})
	}
}

func TestParseCountsCharacters(t *testing.T) {
	result, err := Parse(Text("a", "aé日本"))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Stats.Additions)
	assert.Equal(t, 0, result.Stats.Deletions)

	result, err = Parse(Text("x😀y", "xy"))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Stats.Additions)
	assert.Equal(t, 1, result.Stats.Deletions)
}

func TestTextIdentical(t *testing.T) {
	assert.Equal(t, "", Text("a", "a"))
	assert.Equal(t, "", Text("", ""))

	got, err := Apply("", "unchanged")
	require.NoError(t, err)
	assert.Equal(t, "unchanged", got)
}

func TestApplyInvalidPatch(t *testing.T) {
	_, err := Apply("not a patch", "source")
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestDecodeEscapes(t *testing.T) {
	tests := map[string]string{
		`%22c%22:%22foo`: `"c":"foo`,
		"%0A  third":     "\n  third",
		"a+b":            "a+b",
		"%25":            "%",
		"50%":            "50%",
		"plain text":     "plain text",
	}
	for in, want := range tests {
		assert.Equal(t, want, DecodeEscapes(in), in)
	}
}

const multiHunkPatch = "@@ -1,12 +1,12 @@\n %0A  \n-h\n+H\n ello wor\n" +
	"@@ -7,16 +7,59 @@\n lo world\n+, and this is a text%0A  on multiple%0A  lines.\n %0A  third\n" +
	"@@ -63,9 +63,8 @@\n ird line\n-%0A\n"

func TestParse(t *testing.T) {
	result, err := Parse(multiHunkPatch)
	require.NoError(t, err)
	require.Len(t, result.Hunks, 3)

	first := result.Hunks[0]
	assert.Equal(t, 1, first.OldStart)
	assert.Equal(t, 12, first.OldLines)
	assert.Equal(t, []Segment{
		{Type: Context, Text: "\n  "},
		{Type: Deletion, Text: "h"},
		{Type: Addition, Text: "H"},
		{Type: Context, Text: "ello wor"},
	}, first.Segments)

	assert.Equal(t, 63, result.Hunks[2].NewStart)
	assert.Equal(t, 8, result.Hunks[2].NewLines)
	assert.Equal(t, 1+len(", and this is a text\n  on multiple\n  lines."), result.Stats.Additions)
	assert.Equal(t, 2, result.Stats.Deletions)
	assert.Equal(t, result.Stats.Additions+result.Stats.Deletions, result.Stats.Changes)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(" orphan context\n")
	assert.ErrorIs(t, err, errors.ErrInternal)

	_, err = Parse("@@ -1,2 +1,2 @@\n*bad\n")
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestHTML(t *testing.T) {
	html, err := HTML(multiHunkPatch)
	require.NoError(t, err)
	assert.Equal(t,
		"<span><br />  </span><del>h</del><ins>H</ins><span>ello wor</span><hr />"+
			"<span>lo world</span><ins>, and this is a text<br />  on multiple<br />  lines.</ins><span><br />  third</span><hr />"+
			"<span>ird line</span><del><br /></del>",
		html)

	escaped, err := HTML("@@ -1,3 +1,3 @@\n-%3Cb%3E\n+&\n")
	require.NoError(t, err)
	assert.Equal(t, "<del>&lt;b&gt;</del><ins>&amp;</ins>", escaped)

	empty, err := HTML("")
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestCompare(t *testing.T) {
	res, err := Compare("a", "a")
	require.NoError(t, err)
	assert.Nil(t, res)

	res, err = Compare(`[["a",{"c":"foo"}]]`, `[["a",{"c":"foo bar"}]]`)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.HTML, "<ins> bar</ins>")

	applied, err := Apply(res.Text, `[["a",{"c":"foo"}]]`)
	require.NoError(t, err)
	assert.Equal(t, `[["a",{"c":"foo bar"}]]`, applied)
}

func TestFormat(t *testing.T) {
	result, err := Parse("@@ -1,3 +1,4 @@\n ab\n+%0A\n c\n")
	require.NoError(t, err)
	assert.Equal(t, "@@ -1,3 +1,4 @@\n  ab\n+ \\n\n  c\n", result.Format())
}
