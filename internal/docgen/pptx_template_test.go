package docgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dokugen/internal/domain"
)

const tplNamespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

// layoutShape renders one placeholder shape the way a corporate template
// carries it: typed placeholder, styled prompt paragraph.
func layoutShape(id int, phType, idx, runProps, paraProps string) string {
	idxAttr := ""
	if idx != "" {
		idxAttr = ` idx="` + idx + `"`
	}
	return `<p:sp><p:nvSpPr><p:cNvPr id="` + string(rune('0'+id)) + `" name="Plasshaldar"/><p:cNvSpPr/><p:nvPr><p:ph type="` + phType + `"` + idxAttr + `/></p:nvPr></p:nvSpPr>` +
		`<p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/>` +
		`<a:p><a:pPr>` + paraProps + `</a:pPr><a:r><a:rPr lang="nn-NO" ` + runProps + `/><a:t>Skriv her</a:t></a:r></a:p>` +
		`<a:p><a:r><a:rPr lang="nn-NO"/><a:t>Ekstra avsnitt</a:t></a:r></a:p>` +
		`</p:txBody></p:sp>`
}

func layoutXML(name string, shapes ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<p:sldLayout ` + tplNamespaces + `><p:cSld name="` + name + `"><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
		strings.Join(shapes, "") +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`
}

// corporateTemplate assembles a small but structurally complete branded
// template: one existing slide plus Forside and Innhald layouts.
func corporateTemplate(t *testing.T, layouts map[string]string) []byte {
	t.Helper()

	if layouts == nil {
		layouts = map[string]string{
			"ppt/slideLayouts/slideLayout1.xml": layoutXML("Forside",
				layoutShape(2, "ctrTitle", "", `sz="4000" b="1"`, ""),
				layoutShape(3, "subTitle", "1", `sz="2000"`, ""),
				layoutShape(4, "dt", "10", `sz="1200"`, ""),
			),
			"ppt/slideLayouts/slideLayout2.xml": layoutXML("Innhald",
				layoutShape(2, "title", "", `sz="3200" b="1"`, ""),
				layoutShape(3, "body", "1", `sz="1800"`, `<a:buNone/>`),
			),
		}
	}

	parts := []opcPart{
		{Name: "[Content_Types].xml", Data: []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>
<Override PartName="/ppt/slides/slide1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>
</Types>`)},
		{Name: "_rels/.rels", Data: []byte(pptxRootRels)},
		{Name: "ppt/presentation.xml", Data: []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation ` + tplNamespaces + `><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst><p:sldId id="256" r:id="rId2"/></p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/></p:presentation>`)},
		{Name: "ppt/_rels/presentation.xml.rels", Data: []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
</Relationships>`)},
		{Name: "ppt/slides/slide1.xml", Data: []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld ` + tplNamespaces + `><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/><p:sp><p:nvSpPr><p:cNvPr id="2" name="Old"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:p><a:r><a:t>GAMMALT LYSBILETE</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)},
		{Name: "ppt/slides/_rels/slide1.xml.rels", Data: []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout2.xml"/>
</Relationships>`)},
		{Name: "ppt/slideMasters/slideMaster1.xml", Data: []byte(pptxSlideMaster)},
	}
	for name, xml := range layouts {
		parts = append(parts, opcPart{Name: name, Data: []byte(xml)})
	}

	data, err := writeOPCPackage(parts)
	require.NoError(t, err)
	return data
}

func newTestEngine(t *testing.T, template []byte) *TemplateEngine {
	t.Helper()
	engine, err := NewTemplateEngine(template, domain.DefaultSlideLayouts())
	require.NoError(t, err)
	engine.today = func() string { return "17.05.2026" }
	return engine
}

func buildAndRead(t *testing.T, engine *TemplateEngine, slides []domain.Slide) map[string][]byte {
	t.Helper()
	out, err := engine.Build(slides)
	require.NoError(t, err)
	parts, err := readOPCPackage(out)
	require.NoError(t, err)
	return parts
}

func TestTemplateEngineRemovesAllTemplateSlides(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))

	parts := buildAndRead(t, engine, []domain.Slide{{Type: domain.SlideTypeContent, Title: "Ny"}})

	for name, data := range parts {
		assert.NotContains(t, string(data), "GAMMALT LYSBILETE", "part %s", name)
	}
	pres := string(parts["ppt/presentation.xml"])
	assert.Equal(t, 1, strings.Count(pres, "<p:sldId "))
}

func TestRemoveAllSlidesLeavesZeroSlides(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))
	pkg := clonePackage(engine.template)

	require.NoError(t, removeAllSlides(pkg))

	for name := range pkg {
		assert.False(t, slidePartPattern.MatchString(name), "slide part %s survived", name)
	}
	assert.Contains(t, pkg, "ppt/slideMasters/slideMaster1.xml")
	assert.Contains(t, pkg, "ppt/slideLayouts/slideLayout1.xml")
	assert.NotContains(t, string(pkg["ppt/presentation.xml"]), "<p:sldId ")
}

func TestTemplateEngineSlideIDsStartAt256AndIncrement(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))

	parts := buildAndRead(t, engine, []domain.Slide{
		{Type: domain.SlideTypeFront, Title: "Framside", Content: "Undertittel"},
		{Type: domain.SlideTypeContent, Title: "Eitt"},
		{Type: domain.SlideTypeContent, Title: "To"},
	})

	pres := string(parts["ppt/presentation.xml"])
	assert.Contains(t, pres, `id="256"`)
	assert.Contains(t, pres, `id="257"`)
	assert.Contains(t, pres, `id="258"`)
	assert.Contains(t, parts, "ppt/slides/slide1.xml")
	assert.Contains(t, parts, "ppt/slides/slide2.xml")
	assert.Contains(t, parts, "ppt/slides/slide3.xml")
}

func TestTemplateEngineFirstSlideDefaultsToFrontLayout(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))

	parts := buildAndRead(t, engine, []domain.Slide{{Title: "Årsrapport", Content: "Avdeling Vest"}})

	slide := string(parts["ppt/slides/slide1.xml"])
	assert.Contains(t, slide, "Årsrapport")
	assert.Contains(t, slide, "Avdeling Vest")
	assert.Contains(t, slide, "17.05.2026")
	rels := string(parts["ppt/slides/_rels/slide1.xml.rels"])
	assert.Contains(t, rels, "slideLayout1.xml")
}

func TestTemplateEngineBulletsStrippedAndMarked(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))

	parts := buildAndRead(t, engine, []domain.Slide{
		{Type: domain.SlideTypeContent, Title: "Intro", Content: "- Punkt A\n- Punkt B"},
	})

	slide := string(parts["ppt/slides/slide1.xml"])
	assert.Contains(t, slide, ">Punkt A<")
	assert.Contains(t, slide, ">Punkt B<")
	assert.NotContains(t, slide, "- Punkt")
	assert.Equal(t, 2, strings.Count(slide, "<a:buChar"))
	// The layout's "no bullet" override must not survive on bulleted lines.
	assert.NotContains(t, slide, "<a:buNone/><a:buChar")
}

func TestTemplateEngineContentLineKinds(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))

	parts := buildAndRead(t, engine, []domain.Slide{
		{Type: domain.SlideTypeContent, Title: "T", Content: "vanleg linje\n\n* stjernepunkt"},
	})

	slide := string(parts["ppt/slides/slide1.xml"])
	assert.Contains(t, slide, ">vanleg linje<")
	assert.Contains(t, slide, ">stjernepunkt<")
	assert.Equal(t, 1, strings.Count(slide, "<a:buChar"))
}

func TestTemplateEngineKeepsTemplateFormatting(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))

	parts := buildAndRead(t, engine, []domain.Slide{
		{Type: domain.SlideTypeContent, Title: "Formatert", Content: "tekst"},
	})

	slide := string(parts["ppt/slides/slide1.xml"])
	// Title run reuses the layout's 3200/bold run properties.
	assert.Contains(t, slide, `sz="3200"`)
	// The layout's prompt paragraphs are gone.
	assert.NotContains(t, slide, "Skriv her")
	assert.NotContains(t, slide, "Ekstra avsnitt")
}

func TestTemplateEngineFindLayoutSubstringFallback(t *testing.T) {
	layouts := map[string]string{
		"ppt/slideLayouts/slideLayout1.xml": layoutXML("1_Forside mørk",
			layoutShape(2, "ctrTitle", "", `sz="4000" b="1"`, ""),
			layoutShape(3, "subTitle", "1", `sz="2000"`, ""),
			layoutShape(4, "dt", "10", `sz="1200"`, ""),
		),
		"ppt/slideLayouts/slideLayout2.xml": layoutXML("2_Innhald lys",
			layoutShape(2, "title", "", `sz="3200"`, ""),
			layoutShape(3, "body", "1", `sz="1800"`, ""),
		),
	}
	engine := newTestEngine(t, corporateTemplate(t, layouts))

	parts := buildAndRead(t, engine, []domain.Slide{{Type: domain.SlideTypeContent, Title: "x"}})

	rels := string(parts["ppt/slides/_rels/slide1.xml.rels"])
	assert.Contains(t, rels, "slideLayout2.xml")
}

func TestTemplateEngineMissingPlaceholderIndexFailsLoudly(t *testing.T) {
	layouts := map[string]string{
		"ppt/slideLayouts/slideLayout1.xml": layoutXML("Forside",
			layoutShape(2, "ctrTitle", "", `sz="4000"`, ""),
			layoutShape(3, "subTitle", "1", `sz="2000"`, ""),
			layoutShape(4, "dt", "10", `sz="1200"`, ""),
		),
		// Innhald without the body placeholder the mapping expects.
		"ppt/slideLayouts/slideLayout2.xml": layoutXML("Innhald",
			layoutShape(2, "title", "", `sz="3200"`, ""),
		),
	}
	engine := newTestEngine(t, corporateTemplate(t, layouts))

	_, err := engine.Build([]domain.Slide{{Type: domain.SlideTypeContent, Title: "x", Content: "y"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 1")
}

func TestTemplateEngineSharedTemplateStaysUntouched(t *testing.T) {
	engine := newTestEngine(t, corporateTemplate(t, nil))
	before := string(engine.template["ppt/presentation.xml"])

	_ = buildAndRead(t, engine, []domain.Slide{{Type: domain.SlideTypeContent, Title: "a"}})
	_ = buildAndRead(t, engine, []domain.Slide{{Type: domain.SlideTypeContent, Title: "b"}})

	assert.Equal(t, before, string(engine.template["ppt/presentation.xml"]))
	assert.Contains(t, before, `<p:sldId id="256" r:id="rId2"/>`)
}

func TestNewTemplateEngineRejectsNonPresentation(t *testing.T) {
	data, err := writeOPCPackage([]opcPart{{Name: "hello.txt", Data: []byte("hi")}})
	require.NoError(t, err)

	_, err = NewTemplateEngine(data, domain.DefaultSlideLayouts())
	require.Error(t, err)
}
