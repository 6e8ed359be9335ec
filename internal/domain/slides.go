package domain

// Slide is one slide of a presentation request: a title and a multi-line
// content body, plus an optional slide-type key steering which corporate
// layout the template engine picks. Any field may be empty.
type Slide struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// Slide type keys recognised by the corporate template engine.
const (
	SlideTypeFront           = "forside"
	SlideTypeContent         = "innhald"
	SlideTypeContentSubtitle = "innhald_m_undertittel"
	SlideTypeChapter         = "kapittel"
	SlideTypeClosing         = "avslutting"
)

// PlaceholderMapping holds the numeric placeholder indices used by one
// slide layout in the corporate template. A nil pointer means the layout
// has no placeholder for that role.
type PlaceholderMapping struct {
	Title    *uint32
	Subtitle *uint32
	Content  *uint32
	Date     *uint32
}

// SlideLayoutDescriptor ties a semantic slide-type key to the display name
// of a layout in the corporate template and to its placeholder indices.
// Descriptors are static configuration, never mutated at runtime.
type SlideLayoutDescriptor struct {
	LayoutName   string
	Placeholders PlaceholderMapping
}

func idx(v uint32) *uint32 { return &v }

// DefaultSlideLayouts describes the layouts of the corporate template in
// use today. The indices match that one template file; the engine fails
// loudly when a swapped-in template does not carry them.
func DefaultSlideLayouts() map[string]SlideLayoutDescriptor {
	return map[string]SlideLayoutDescriptor{
		SlideTypeFront: {
			LayoutName: "Forside",
			Placeholders: PlaceholderMapping{
				Title:    idx(0),
				Subtitle: idx(1),
				Date:     idx(10),
			},
		},
		SlideTypeContent: {
			LayoutName: "Innhald",
			Placeholders: PlaceholderMapping{
				Title:   idx(0),
				Content: idx(1),
			},
		},
		SlideTypeContentSubtitle: {
			LayoutName: "Innhald med undertittel",
			Placeholders: PlaceholderMapping{
				Title:    idx(0),
				Subtitle: idx(2),
				Content:  idx(1),
			},
		},
		SlideTypeChapter: {
			LayoutName: "Kapittel",
			Placeholders: PlaceholderMapping{
				Title: idx(0),
			},
		},
		SlideTypeClosing: {
			LayoutName: "Avslutting",
			Placeholders: PlaceholderMapping{
				Title:    idx(0),
				Subtitle: idx(1),
			},
		},
	}
}
