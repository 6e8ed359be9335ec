package docgen

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"dokugen/internal/domain"
)

const (
	relTypeSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	slideContentType   = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// TemplateEngine builds branded decks on top of a pre-loaded corporate
// template. The loaded template is read-only shared state; every Build
// deep-clones the whole part map before touching anything, so concurrent
// builds never share mutable trees.
type TemplateEngine struct {
	template map[string][]byte
	layouts  map[string]domain.SlideLayoutDescriptor
	today    func() string
}

// NewTemplateEngine loads a corporate template package and the static
// slide-type → layout/placeholder configuration.
func NewTemplateEngine(templateData []byte, layouts map[string]domain.SlideLayoutDescriptor) (*TemplateEngine, error) {
	parts, err := readOPCPackage(templateData)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	if _, ok := parts["ppt/presentation.xml"]; !ok {
		return nil, fmt.Errorf("load template: not a presentation package")
	}
	return &TemplateEngine{
		template: parts,
		layouts:  layouts,
		today:    func() string { return time.Now().Format("02.01.2006") },
	}, nil
}

// Build produces a deck: every slide of the template is removed, then one
// new slide per entry is created from the layout matching the slide's type
// key. Unknown or empty type keys use the content layout; the first slide
// defaults to the front-page layout.
func (e *TemplateEngine) Build(slides []domain.Slide) ([]byte, error) {
	pkg := clonePackage(e.template)

	if err := removeAllSlides(pkg); err != nil {
		return nil, err
	}

	for i, slide := range slides {
		desc := e.descriptorFor(slide, i)
		layoutPart, ok := findLayout(pkg, desc.LayoutName)
		if !ok {
			// Fall back to the default content layout before giving up.
			desc = e.layouts[domain.SlideTypeContent]
			layoutPart, ok = findLayout(pkg, desc.LayoutName)
			if !ok {
				return nil, fmt.Errorf("template has no layout matching %q", desc.LayoutName)
			}
		}
		if err := e.createSlideFromLayout(pkg, layoutPart, desc, slide); err != nil {
			return nil, err
		}
	}

	parts := make([]opcPart, 0, len(pkg))
	for name, data := range pkg {
		parts = append(parts, opcPart{Name: name, Data: data})
	}
	return writeOPCPackage(parts)
}

func (e *TemplateEngine) descriptorFor(slide domain.Slide, position int) domain.SlideLayoutDescriptor {
	if desc, ok := e.layouts[slide.Type]; ok {
		return desc
	}
	if position == 0 {
		if desc, ok := e.layouts[domain.SlideTypeFront]; ok {
			return desc
		}
	}
	return e.layouts[domain.SlideTypeContent]
}

func clonePackage(parts map[string][]byte) map[string][]byte {
	clone := make(map[string][]byte, len(parts))
	for name, data := range parts {
		clone[name] = append([]byte(nil), data...)
	}
	return clone
}

func parsePart(pkg map[string][]byte, name string) (*etree.Document, error) {
	data, ok := pkg[name]
	if !ok {
		return nil, fmt.Errorf("template part %s missing", name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse template part %s: %w", name, err)
	}
	return doc, nil
}

func savePart(pkg map[string][]byte, name string, doc *etree.Document) error {
	data, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serialize template part %s: %w", name, err)
	}
	pkg[name] = data
	return nil
}

// removeAllSlides deletes every slide part, its relationships, its entry in
// the presentation's slide-ID list and its content-type override. Masters
// and layouts are untouched.
func removeAllSlides(pkg map[string][]byte) error {
	presRels, err := parsePart(pkg, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return err
	}
	root := presRels.Root()
	for _, rel := range append([]*etree.Element(nil), root.ChildElements()...) {
		if rel.SelectAttrValue("Type", "") != relTypeSlide {
			continue
		}
		target := strings.TrimPrefix(rel.SelectAttrValue("Target", ""), "/")
		partName := "ppt/" + target
		delete(pkg, partName)
		delete(pkg, slideRelsName(partName))
		root.RemoveChild(rel)
	}
	if err := savePart(pkg, "ppt/_rels/presentation.xml.rels", presRels); err != nil {
		return err
	}

	pres, err := parsePart(pkg, "ppt/presentation.xml")
	if err != nil {
		return err
	}
	if lst := pres.Root().SelectElement("p:sldIdLst"); lst != nil {
		for _, id := range append([]*etree.Element(nil), lst.ChildElements()...) {
			lst.RemoveChild(id)
		}
	}
	if err := savePart(pkg, "ppt/presentation.xml", pres); err != nil {
		return err
	}

	// Any slide part not referenced from the rels is still a slide part.
	for name := range pkg {
		if slidePartPattern.MatchString(name) {
			delete(pkg, name)
			delete(pkg, slideRelsName(name))
		}
	}

	ctypes, err := parsePart(pkg, "[Content_Types].xml")
	if err != nil {
		return err
	}
	croot := ctypes.Root()
	for _, override := range append([]*etree.Element(nil), croot.ChildElements()...) {
		if override.SelectAttrValue("ContentType", "") == slideContentType {
			croot.RemoveChild(override)
		}
	}
	return savePart(pkg, "[Content_Types].xml", ctypes)
}

// findLayout searches every slide layout part for one whose display name
// matches exactly, then for one whose name contains the wanted name.
// Returns the part name of the match.
func findLayout(pkg map[string][]byte, layoutName string) (string, bool) {
	type candidate struct {
		part string
		name string
	}
	var layoutParts []string
	for name := range pkg {
		if !strings.HasPrefix(name, "ppt/slideLayouts/") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		if strings.Contains(name, "_rels") {
			continue
		}
		layoutParts = append(layoutParts, name)
	}
	sort.Strings(layoutParts)

	var candidates []candidate
	for _, name := range layoutParts {
		doc, err := parsePart(pkg, name)
		if err != nil {
			continue
		}
		cSld := doc.Root().SelectElement("p:cSld")
		if cSld == nil {
			continue
		}
		candidates = append(candidates, candidate{part: name, name: cSld.SelectAttrValue("name", "")})
	}

	for _, c := range candidates {
		if c.name == layoutName {
			return c.part, true
		}
	}
	for _, c := range candidates {
		if c.name != "" && strings.Contains(strings.ToLower(c.name), strings.ToLower(layoutName)) {
			return c.part, true
		}
	}
	return "", false
}

// createSlideFromLayout adds one slide: a fresh slide part whose shape tree
// holds a deep clone of every top-level layout shape (the shared layout is
// never mutated), linked to its layout, registered in the content types,
// the presentation relationships and the slide-ID list, and with its
// mapped placeholders filled.
func (e *TemplateEngine) createSlideFromLayout(pkg map[string][]byte, layoutPart string, desc domain.SlideLayoutDescriptor, slide domain.Slide) error {
	layoutDoc, err := parsePart(pkg, layoutPart)
	if err != nil {
		return err
	}
	layoutTree := layoutDoc.FindElement("//p:spTree")
	if layoutTree == nil {
		return fmt.Errorf("layout %s has no shape tree", layoutPart)
	}

	slideDoc := etree.NewDocument()
	slideDoc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	sld := slideDoc.CreateElement("p:sld")
	sld.CreateAttr("xmlns:a", "http://schemas.openxmlformats.org/drawingml/2006/main")
	sld.CreateAttr("xmlns:r", "http://schemas.openxmlformats.org/officeDocument/2006/relationships")
	sld.CreateAttr("xmlns:p", "http://schemas.openxmlformats.org/presentationml/2006/main")
	cSld := sld.CreateElement("p:cSld")
	spTree := cSld.CreateElement("p:spTree")

	for _, child := range layoutTree.ChildElements() {
		spTree.AddChild(child.Copy())
	}
	sld.CreateElement("p:clrMapOvr").CreateElement("a:masterClrMapping")

	if err := e.fillPlaceholders(spTree, desc, slide); err != nil {
		return fmt.Errorf("layout %s: %w", layoutPart, err)
	}

	slideNum := nextSlideNumber(pkg)
	slidePart := fmt.Sprintf("ppt/slides/slide%d.xml", slideNum)
	if err := savePart(pkg, slidePart, slideDoc); err != nil {
		return err
	}

	relsDoc := etree.NewDocument()
	relsDoc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	rels := relsDoc.CreateElement("Relationships")
	rels.CreateAttr("xmlns", "http://schemas.openxmlformats.org/package/2006/relationships")
	rel := rels.CreateElement("Relationship")
	rel.CreateAttr("Id", "rId1")
	rel.CreateAttr("Type", relTypeSlideLayout)
	rel.CreateAttr("Target", "../"+strings.TrimPrefix(layoutPart, "ppt/"))
	if err := savePart(pkg, slideRelsName(slidePart), relsDoc); err != nil {
		return err
	}

	ctypes, err := parsePart(pkg, "[Content_Types].xml")
	if err != nil {
		return err
	}
	override := ctypes.Root().CreateElement("Override")
	override.CreateAttr("PartName", "/"+slidePart)
	override.CreateAttr("ContentType", slideContentType)
	if err := savePart(pkg, "[Content_Types].xml", ctypes); err != nil {
		return err
	}

	presRels, err := parsePart(pkg, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return err
	}
	relID := fmt.Sprintf("rId%d", nextRelNumber(presRels.Root()))
	slideRel := presRels.Root().CreateElement("Relationship")
	slideRel.CreateAttr("Id", relID)
	slideRel.CreateAttr("Type", relTypeSlide)
	slideRel.CreateAttr("Target", "slides/"+fmt.Sprintf("slide%d.xml", slideNum))
	if err := savePart(pkg, "ppt/_rels/presentation.xml.rels", presRels); err != nil {
		return err
	}

	pres, err := parsePart(pkg, "ppt/presentation.xml")
	if err != nil {
		return err
	}
	lst := pres.Root().SelectElement("p:sldIdLst")
	if lst == nil {
		lst = pres.Root().CreateElement("p:sldIdLst")
	}
	sldID := lst.CreateElement("p:sldId")
	sldID.CreateAttr("id", strconv.Itoa(nextSlideID(lst)))
	sldID.CreateAttr("r:id", relID)
	return savePart(pkg, "ppt/presentation.xml", pres)
}

// fillPlaceholders writes the slide's text into every placeholder the
// static mapping names. A mapped index that is absent from the cloned
// layout shapes is a hard error rather than a silent no-op; silently
// dropping content into the void is how template swaps go unnoticed.
func (e *TemplateEngine) fillPlaceholders(spTree *etree.Element, desc domain.SlideLayoutDescriptor, slide domain.Slide) error {
	m := desc.Placeholders

	subtitleText := ""
	contentText := slide.Content
	if m.Subtitle != nil && m.Content == nil {
		// Layouts without a body placeholder show the content as subtitle.
		subtitleText = slide.Content
		contentText = ""
	} else if m.Subtitle != nil && m.Content != nil {
		// First content line becomes the subtitle, the rest stays body.
		lines := strings.SplitN(normalizeLineEndings(slide.Content), "\n", 2)
		subtitleText = lines[0]
		contentText = ""
		if len(lines) > 1 {
			contentText = lines[1]
		}
	}

	if m.Title != nil {
		sp, ok := findPlaceholderShape(spTree, *m.Title)
		if !ok {
			return fmt.Errorf("no placeholder with index %d for title", *m.Title)
		}
		if err := setPlaceholderText(sp, slide.Title); err != nil {
			return err
		}
	}
	if m.Subtitle != nil {
		sp, ok := findPlaceholderShape(spTree, *m.Subtitle)
		if !ok {
			return fmt.Errorf("no placeholder with index %d for subtitle", *m.Subtitle)
		}
		if err := setPlaceholderText(sp, subtitleText); err != nil {
			return err
		}
	}
	if m.Content != nil {
		sp, ok := findPlaceholderShape(spTree, *m.Content)
		if !ok {
			return fmt.Errorf("no placeholder with index %d for content", *m.Content)
		}
		if err := setPlaceholderContent(sp, contentText); err != nil {
			return err
		}
	}
	if m.Date != nil {
		sp, ok := findPlaceholderShape(spTree, *m.Date)
		if !ok {
			return fmt.Errorf("no placeholder with index %d for date", *m.Date)
		}
		if err := setPlaceholderText(sp, e.today()); err != nil {
			return err
		}
	}
	return nil
}

// findPlaceholderShape scans the shape tree's top-level shapes for the one
// whose placeholder descriptor carries the wanted index. An absent idx
// attribute means index 0.
func findPlaceholderShape(spTree *etree.Element, index uint32) (*etree.Element, bool) {
	for _, sp := range spTree.SelectElements("p:sp") {
		ph := sp.FindElement("p:nvSpPr/p:nvPr/p:ph")
		if ph == nil {
			continue
		}
		idx := uint64(0)
		if raw := ph.SelectAttrValue("idx", ""); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				continue
			}
			idx = parsed
		}
		if uint32(idx) == index {
			return sp, true
		}
	}
	return nil, false
}

// paragraphTemplate captures the formatting of a placeholder's first
// paragraph so new text keeps the template's look.
type paragraphTemplate struct {
	pPr *etree.Element
	rPr *etree.Element
}

func captureTemplate(txBody *etree.Element) paragraphTemplate {
	var tpl paragraphTemplate
	if p := txBody.SelectElement("a:p"); p != nil {
		if pPr := p.SelectElement("a:pPr"); pPr != nil {
			tpl.pPr = pPr.Copy()
		}
		if r := p.SelectElement("a:r"); r != nil {
			if rPr := r.SelectElement("a:rPr"); rPr != nil {
				tpl.rPr = rPr.Copy()
			}
		}
	}
	return tpl
}

func clearParagraphs(txBody *etree.Element) {
	for _, p := range append([]*etree.Element(nil), txBody.SelectElements("a:p")...) {
		txBody.RemoveChild(p)
	}
}

func appendParagraph(txBody *etree.Element, tpl paragraphTemplate, text string, bullet bool) {
	p := txBody.CreateElement("a:p")
	var pPr *etree.Element
	if tpl.pPr != nil {
		pPr = tpl.pPr.Copy()
		p.AddChild(pPr)
	}
	if bullet {
		if pPr == nil {
			pPr = p.CreateElement("a:pPr")
		}
		// A "no bullet" override from the template would hide our marker.
		if buNone := pPr.SelectElement("a:buNone"); buNone != nil {
			pPr.RemoveChild(buNone)
		}
		if pPr.SelectElement("a:buChar") == nil && pPr.SelectElement("a:buAutoNum") == nil {
			buChar := pPr.CreateElement("a:buChar")
			buChar.CreateAttr("char", "•")
		}
	}
	if text == "" {
		return
	}
	r := p.CreateElement("a:r")
	if tpl.rPr != nil {
		r.AddChild(tpl.rPr.Copy())
	}
	r.CreateElement("a:t").SetText(text)
}

// setPlaceholderText replaces the placeholder's paragraphs with exactly one
// paragraph holding the supplied text, formatted like the first paragraph
// the layout carried.
func setPlaceholderText(sp *etree.Element, text string) error {
	txBody := sp.SelectElement("p:txBody")
	if txBody == nil {
		return fmt.Errorf("placeholder shape has no text body")
	}
	tpl := captureTemplate(txBody)
	clearParagraphs(txBody)
	appendParagraph(txBody, tpl, text, false)
	return nil
}

// setPlaceholderContent fills a body placeholder line by line: blank lines
// become empty paragraphs, lines starting with "- " or "* " become bulleted
// paragraphs with the marker stripped, everything else is a plain paragraph.
func setPlaceholderContent(sp *etree.Element, content string) error {
	txBody := sp.SelectElement("p:txBody")
	if txBody == nil {
		return fmt.Errorf("placeholder shape has no text body")
	}
	tpl := captureTemplate(txBody)
	clearParagraphs(txBody)

	for _, line := range strings.Split(normalizeLineEndings(content), "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			appendParagraph(txBody, tpl, "", false)
		case strings.HasPrefix(line, "- "):
			appendParagraph(txBody, tpl, strings.TrimPrefix(line, "- "), true)
		case strings.HasPrefix(line, "* "):
			appendParagraph(txBody, tpl, strings.TrimPrefix(line, "* "), true)
		default:
			appendParagraph(txBody, tpl, line, false)
		}
	}
	return nil
}

func slideRelsName(slidePart string) string {
	i := strings.LastIndex(slidePart, "/")
	return slidePart[:i] + "/_rels/" + slidePart[i+1:] + ".rels"
}

func nextSlideNumber(pkg map[string][]byte) int {
	max := 0
	for name := range pkg {
		if m := slidePartPattern.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > max {
				max = n
			}
		}
	}
	return max + 1
}

func nextRelNumber(relsRoot *etree.Element) int {
	max := 0
	for _, rel := range relsRoot.ChildElements() {
		id := rel.SelectAttrValue("Id", "")
		if !strings.HasPrefix(id, "rId") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// nextSlideID returns max+1 over the current slide-ID list, or 256 when the
// list is empty — matching where the generic builder starts.
func nextSlideID(sldIDLst *etree.Element) int {
	max := 0
	for _, id := range sldIDLst.ChildElements() {
		if n, err := strconv.Atoi(id.SelectAttrValue("id", "")); err == nil && n > max {
			max = n
		}
	}
	if max == 0 {
		return firstSlideID
	}
	return max + 1
}
