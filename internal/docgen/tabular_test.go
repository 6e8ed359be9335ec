package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTabularDataJSONHeaderIsFirstSeenKeyUnion(t *testing.T) {
	rows := ParseTabularData(`[{"name":"Kari","age":"34"},{"name":"Ola"}]`)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"name", "age"}, rows[0])
	assert.Equal(t, []string{"Kari", "34"}, rows[1])
	assert.Equal(t, []string{"Ola", ""}, rows[2])
}

func TestParseTabularDataJSONKeysAcrossObjects(t *testing.T) {
	rows := ParseTabularData(`[{"a":"1"},{"b":"2","a":"3"},{"c":"4"}]`)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"1", "", ""}, rows[1])
	assert.Equal(t, []string{"3", "2", ""}, rows[2])
	assert.Equal(t, []string{"", "", "4"}, rows[3])
}

func TestParseTabularDataJSONNonStringValuesKeepJSONForm(t *testing.T) {
	rows := ParseTabularData(`[{"n":42,"ok":true,"obj":{"x":1}}]`)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"n", "ok", "obj"}, rows[0])
	assert.Equal(t, "42", rows[1][0])
	assert.Equal(t, "true", rows[1][1])
	assert.Equal(t, `{"x":1}`, rows[1][2])
}

func TestParseTabularDataEveryRowMatchesHeaderLength(t *testing.T) {
	rows := ParseTabularData(`[{"a":"1","b":"2"},{"c":"3"},{}]`)

	require.NotEmpty(t, rows)
	width := len(rows[0])
	for i, row := range rows {
		assert.Len(t, row, width, "row %d", i)
	}
}

func TestParseTabularDataBadJSONFallsThroughToCSV(t *testing.T) {
	rows := ParseTabularData("[not json\na,b\n1,2")

	// No error, no synthesized header; the text is treated as CSV as-is.
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"[not json"}, rows[0])
	assert.Equal(t, []string{"a", "b"}, rows[1])
	assert.Equal(t, []string{"1", "2"}, rows[2])
}

func TestParseTabularDataCSVSemicolonWins(t *testing.T) {
	rows := ParseTabularData("a;b\n1,5;2,5")

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"1,5", "2,5"}, rows[1])
}

func TestParseTabularDataCSVCommaDefault(t *testing.T) {
	rows := ParseTabularData("a,b\n1,2")

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestParseTabularDataCSVSkipsBlanksAndTrims(t *testing.T) {
	rows := ParseTabularData("a , b\r\n\r\n 1 ,2 \r\n")

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"1", "2"}, rows[1])
}

func TestParseTabularDataCSVNeverSynthesizesHeader(t *testing.T) {
	rows := ParseTabularData("1,2\n3,4")

	// First CSV line is data unless the caller includes a header.
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "2"}, rows[0])
}
