package docgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"dokugen/internal/domain"
)

// SlideParseStatus tags how ParseSlides arrived at its slide list, so tests
// can tell intended degradation from genuine parse bugs. The public
// contract only ever exposes the slides themselves.
type SlideParseStatus int

const (
	// SlidesParsed: input was a well-formed JSON array of slides.
	SlidesParsed SlideParseStatus = iota
	// SlidesRaw: input did not look like JSON; the whole text became one
	// slide's content.
	SlidesRaw
	// SlidesDegraded: input looked like JSON but failed to parse; fell
	// back to one slide carrying the raw input.
	SlidesDegraded
	// SlidesDefaulted: nothing usable; a single default slide was
	// synthesized.
	SlidesDefaulted
)

// SlideParseResult is the outcome of ParseSlides.
type SlideParseResult struct {
	Slides []domain.Slide
	Status SlideParseStatus
}

// ParseSlides turns model output into a slide list and never fails: the
// caller is an LLM that cannot guarantee well-formed JSON, so a bad payload
// degrades to a single slide holding the raw text instead of an error.
func ParseSlides(input string) SlideParseResult {
	trimmed := strings.TrimSpace(input)

	var slides []domain.Slide
	status := SlidesRaw

	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &slides); err != nil {
			return SlideParseResult{
				Slides: []domain.Slide{{Content: input}},
				Status: SlidesDegraded,
			}
		}
		status = SlidesParsed
	} else if trimmed != "" {
		slides = []domain.Slide{{Content: input}}
	}

	if len(slides) == 0 {
		return SlideParseResult{
			Slides: []domain.Slide{{Title: "Presentasjon"}},
			Status: SlidesDefaulted,
		}
	}
	return SlideParseResult{Slides: slides, Status: status}
}

// firstSlideID is where slide ids start in a deck with no prior slides.
const firstSlideID = 256

// Fixed textbox geometry (EMUs) and font sizes for the generic builder.
const (
	genericTitleX  = 457200
	genericTitleY  = 274638
	genericTitleW  = 8229600
	genericTitleH  = 1143000
	genericBodyY   = 1600200
	genericBodyH   = 4525963
	genericTitleSz = 4400
	genericBodySz  = 1800
)

// BuildPptx constructs a generic deck: one slide master, one layout, one
// theme and one slide per entry. Titles and bodies sit in fixed-position
// textboxes with fixed font sizes.
func BuildPptx(slides []domain.Slide) ([]byte, error) {
	if len(slides) == 0 {
		slides = []domain.Slide{{Title: "Presentasjon"}}
	}

	parts := []opcPart{
		{Name: "_rels/.rels", Data: []byte(pptxRootRels)},
		{Name: "ppt/slideMasters/slideMaster1.xml", Data: []byte(pptxSlideMaster)},
		{Name: "ppt/slideMasters/_rels/slideMaster1.xml.rels", Data: []byte(pptxSlideMasterRels)},
		{Name: "ppt/slideLayouts/slideLayout1.xml", Data: []byte(pptxSlideLayout)},
		{Name: "ppt/slideLayouts/_rels/slideLayout1.xml.rels", Data: []byte(pptxSlideLayoutRels)},
		{Name: "ppt/theme/theme1.xml", Data: []byte(pptxTheme)},
	}

	var ctypes strings.Builder
	ctypes.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	ctypes.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ctypes.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ctypes.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	ctypes.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	ctypes.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	ctypes.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	ctypes.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)

	var sldIDs, presRels strings.Builder
	presRels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	presRels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	presRels.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)

	for i, slide := range slides {
		n := i + 1
		name := fmt.Sprintf("ppt/slides/slide%d.xml", n)
		parts = append(parts,
			opcPart{Name: name, Data: []byte(genericSlideXML(slide))},
			opcPart{Name: fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), Data: []byte(pptxSlideRels)},
		)
		fmt.Fprintf(&ctypes, `<Override PartName="/%s" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, name)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, firstSlideID+i, n+1)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide%d.xml"/>`, n+1, n)
	}
	ctypes.WriteString(`</Types>`)
	presRels.WriteString(`</Relationships>`)

	presentation := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:sldIdLst>` + sldIDs.String() + `</p:sldIdLst>` +
		`<p:sldSz cx="9144000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>` +
		`</p:presentation>`

	parts = append(parts,
		opcPart{Name: "[Content_Types].xml", Data: []byte(ctypes.String())},
		opcPart{Name: "ppt/presentation.xml", Data: []byte(presentation)},
		opcPart{Name: "ppt/_rels/presentation.xml.rels", Data: []byte(presRels.String())},
	)

	return writeOPCPackage(parts)
}

func genericSlideXML(slide domain.Slide) string {
	var shapes strings.Builder
	shapeID := 2

	if slide.Title != "" {
		fmt.Fprintf(&shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Title"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
			`<p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="nn-NO" sz="%d" b="1"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`,
			shapeID, genericTitleX, genericTitleY, genericTitleW, genericTitleH, genericTitleSz, xmlEscape(slide.Title))
		shapeID++
	}

	if slide.Content != "" {
		var paras strings.Builder
		for _, line := range strings.Split(normalizeLineEndings(slide.Content), "\n") {
			fmt.Fprintf(&paras, `<a:p><a:r><a:rPr lang="nn-NO" sz="%d"/><a:t>%s</a:t></a:r></a:p>`, genericBodySz, xmlEscape(line))
		}
		fmt.Fprintf(&shapes, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Content"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
			`<p:txBody><a:bodyPr/><a:lstStyle/>%s</p:txBody></p:sp>`,
			shapeID, genericTitleX, genericBodyY, genericTitleW, genericBodyH, paras.String())
	}

	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
		`<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		shapes.String() +
		`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

const pptxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/>
</Relationships>`

const pptxSlideRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
</Relationships>`

const pptxSlideMasterRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/>
</Relationships>`

const pptxSlideLayoutRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/>
</Relationships>`

const pptxSlideMaster = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
<p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
</p:spTree></p:cSld>
<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>
<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>
</p:sldMaster>`

const pptxSlideLayout = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="blank">
<p:cSld name="Blank"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>
</p:spTree></p:cSld>
<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>
</p:sldLayout>`

const pptxTheme = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office">
<a:themeElements>
<a:clrScheme name="Office"><a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1><a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2><a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2><a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4><a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6><a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink></a:clrScheme>
<a:fontScheme name="Office"><a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>
<a:fmtScheme name="Office"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst><a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst><a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst><a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst></a:fmtScheme>
</a:themeElements>
</a:theme>`
