package thinkmodel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModelFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const validModel = `<id>swot_analysis</id>
<type>solve</type>
<field>*</field>
<define>
A strategic planning framework that evaluates Strengths, Weaknesses,
Opportunities, and Threats.
</define>
<example>
Assessing a product launch by listing internal strengths first.
</example>
<example>Choosing between two job offers.</example>
`

func TestParseFileValid(t *testing.T) {
	path := writeModelFile(t, t.TempDir(), "swot.txt", validModel)

	m, err := ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, "swot_analysis", m.ID)
	assert.Equal(t, KindSolve, m.Kind)
	assert.Equal(t, "*", m.Field)
	assert.True(t, m.Universal())
	assert.Equal(t,
		"A strategic planning framework that evaluates Strengths, Weaknesses,\nOpportunities, and Threats.",
		m.Definition)
	require.Len(t, m.Examples, 2)
	assert.Equal(t, "Assessing a product launch by listing internal strengths first.", m.Examples[0])
	assert.Equal(t, "Choosing between two job offers.", m.Examples[1])
}

func TestParseFileSameLineTags(t *testing.T) {
	content := "<id>first_principles</id>\n<type>explain</type>\n<field>physics</field>\n<define>Break a problem down to basic truths.</define>\n"
	path := writeModelFile(t, t.TempDir(), "fp.txt", content)

	m, err := ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, "first_principles", m.ID)
	assert.Equal(t, KindExplain, m.Kind)
	assert.Equal(t, "Break a problem down to basic truths.", m.Definition)
	assert.Empty(t, m.Examples)
}

func TestParseFileLineNumberPrefix(t *testing.T) {
	content := ` 1|<id>opportunity_cost</id>
 2|<type>solve</type>
 3|<field>economics</field>
 4|<define>
 5|The value of the best alternative forgone
 6|when a choice is made.
 7|</define>
`
	path := writeModelFile(t, t.TempDir(), "oc.txt", content)

	m, err := ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, "opportunity_cost", m.ID)
	assert.Equal(t, "The value of the best alternative forgone\nwhen a choice is made.", m.Definition)
}

func TestParseFileMixedPrefix(t *testing.T) {
	// Prefixed and unprefixed lines may appear in the same file.
	content := "<id>inversion</id>\n12|<type>solve</type>\n<field>*</field>\n<define>Think backwards from the failure case.</define>\n"
	path := writeModelFile(t, t.TempDir(), "inv.txt", content)

	m, err := ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, "inversion", m.ID)
	assert.Equal(t, KindSolve, m.Kind)
}

func TestParseFileMissingID(t *testing.T) {
	content := "<type>solve</type>\n<field>*</field>\n<define>No identifier here.</define>\n"
	path := writeModelFile(t, t.TempDir(), "broken.txt", content)

	_, err := ParseFile(path)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, path, perr.Path)
	assert.Contains(t, perr.Error(), `"id"`)
}

func TestParseFileInvalidKind(t *testing.T) {
	content := "<id>x</id>\n<type>ponder</type>\n<field>*</field>\n<define>d</define>\n"
	path := writeModelFile(t, t.TempDir(), "bad-kind.txt", content)

	_, err := ParseFile(path)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "ponder")
}

func TestParseFileUnreadable(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.txt"))

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseFileUnclosedExampleDiscarded(t *testing.T) {
	content := `<id>pareto</id>
<type>solve</type>
<field>*</field>
<define>Focus on the vital few causes.</define>
<example>Closed example.</example>
<example>
This one never closes
`
	path := writeModelFile(t, t.TempDir(), "pareto.txt", content)

	m, err := ParseFile(path)

	require.NoError(t, err)
	require.Len(t, m.Examples, 1)
	assert.Equal(t, "Closed example.", m.Examples[0])
}

func TestParseFileFirstSingleTagWins(t *testing.T) {
	content := "<id>alpha</id>\n<id>beta</id>\n<type>solve</type>\n<field>*</field>\n<define>d</define>\n"
	path := writeModelFile(t, t.TempDir(), "dup-tag.txt", content)

	m, err := ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, "alpha", m.ID)
}

func TestParseFileTagMarkersInsideOpenTag(t *testing.T) {
	// While a tag is open, other markers are plain content.
	content := "<id>meta</id>\n<type>explain</type>\n<field>*</field>\n<define>\nUse <example> tags to mark samples.\n</define>\n"
	path := writeModelFile(t, t.TempDir(), "meta.txt", content)

	m, err := ParseFile(path)

	require.NoError(t, err)
	assert.Equal(t, "Use <example> tags to mark samples.", m.Definition)
	assert.Empty(t, m.Examples)
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, "<id>x</id>", stripPrefix("42|<id>x</id>"))
	assert.Equal(t, "<id>x</id>", stripPrefix("<id>x</id>"))
	assert.Equal(t, "", stripPrefix("7|"))
}
