package docgen

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellReference(t *testing.T) {
	cases := []struct {
		col, row int
		want     string
	}{
		{1, 1, "A1"},
		{2, 1, "B1"},
		{26, 1, "Z1"},
		{27, 1, "AA1"},
		{28, 3, "AB3"},
		{52, 1, "AZ1"},
		{53, 1, "BA1"},
		{702, 1, "ZZ1"},
		{703, 1, "AAA1"},
		{1, 99, "A99"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CellReference(c.col, c.row), "col=%d row=%d", c.col, c.row)
	}
}

func TestCellReferenceShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z]+[0-9]+$`)
	seen := make(map[string]bool)
	for col := 1; col <= 60; col++ {
		for row := 1; row <= 4; row++ {
			ref := CellReference(col, row)
			assert.Regexp(t, pattern, ref)
			assert.False(t, seen[ref], "duplicate reference %s", ref)
			seen[ref] = true
		}
	}
}

func TestBuildXlsxWritesStringCells(t *testing.T) {
	pkg, err := BuildXlsx([][]string{
		{"name", "age"},
		{"Kari", "34"},
	})
	require.NoError(t, err)

	parts, err := readOPCPackage(pkg)
	require.NoError(t, err)
	sheet := string(parts["xl/worksheets/sheet1.xml"])

	assert.Contains(t, sheet, `<c r="A1" t="inlineStr"><is><t xml:space="preserve">name</t></is></c>`)
	assert.Contains(t, sheet, `<c r="B1" t="inlineStr"><is><t xml:space="preserve">age</t></is></c>`)
	assert.Contains(t, sheet, `<c r="A2"`)
	assert.Contains(t, sheet, `>Kari<`)
	// Numbers stay strings; no type inference.
	assert.Contains(t, sheet, `<c r="B2" t="inlineStr"><is><t xml:space="preserve">34</t></is></c>`)
}

func TestBuildXlsxSheetIsNamedData(t *testing.T) {
	pkg, err := BuildXlsx([][]string{{"x"}})
	require.NoError(t, err)

	parts, err := readOPCPackage(pkg)
	require.NoError(t, err)
	assert.Contains(t, string(parts["xl/workbook.xml"]), `<sheet name="Data"`)
}

func TestBuildXlsxEscapesXML(t *testing.T) {
	pkg, err := BuildXlsx([][]string{{`<&>"'`}})
	require.NoError(t, err)

	parts, err := readOPCPackage(pkg)
	require.NoError(t, err)
	sheet := string(parts["xl/worksheets/sheet1.xml"])
	assert.Contains(t, sheet, "&lt;&amp;&gt;&quot;&apos;")
}
