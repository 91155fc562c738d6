package feed

// Column is one vertical stack of cards inside a row. Weight is its share
// of the row width (a "larger" card has weight 2, a "smaller" one 1); Slots
// is the number of cards stacked in it.
type Column struct {
	Weight int
	Slots  int
}

// Row is a horizontal band of columns.
type Row struct {
	Columns []Column
}

// Template is a fixed arrangement of cards. Grid templates have no rows:
// their cards flow into GridColumns(width) equal columns.
type Template struct {
	Name string
	Rows []Row
	Grid bool
}

// Capacity is the number of cards the template places, or -1 for a grid.
func (t Template) Capacity() int {
	if t.Grid {
		return -1
	}
	n := 0
	for _, r := range t.Rows {
		for _, c := range r.Columns {
			n += c.Slots
		}
	}
	return n
}

var (
	hero     = Row{Columns: []Column{{Weight: 1, Slots: 1}}}
	pair     = Row{Columns: []Column{{Weight: 1, Slots: 1}, {Weight: 1, Slots: 1}}}
	trio     = Row{Columns: []Column{{Weight: 1, Slots: 1}, {Weight: 1, Slots: 1}, {Weight: 1, Slots: 1}}}
	feature  = Row{Columns: []Column{{Weight: 2, Slots: 1}, {Weight: 1, Slots: 2}}}
	mirrored = Row{Columns: []Column{{Weight: 1, Slots: 2}, {Weight: 2, Slots: 1}}}
)

// Grid is used for weeks with GridThreshold or more articles.
var Grid = Template{Name: "grid", Grid: true}

// GridThreshold is the smallest bucket size laid out as a uniform grid.
const GridThreshold = 8

var templates = map[int]Template{
	1: {Name: "hero", Rows: []Row{hero}},
	2: {Name: "pair", Rows: []Row{pair}},
	3: {Name: "feature", Rows: []Row{feature}},
	4: {Name: "hero-trio", Rows: []Row{hero, trio}},
	5: {Name: "feature-pair", Rows: []Row{feature, pair}},
	6: {Name: "feature-mirrored", Rows: []Row{feature, mirrored}},
	7: {Name: "hero-trio-feature", Rows: []Row{hero, trio, feature}},
}

// TemplateFor picks the template for a bucket of count articles. The
// choice depends on nothing else. count must be positive.
func TemplateFor(count int) Template {
	if count >= GridThreshold {
		return Grid
	}
	return templates[count]
}

// Viewport widths, in terminal columns, below which layouts collapse.
const (
	WideWidth   = 120
	MediumWidth = 90
	NarrowWidth = 60
)

// GridColumns is the number of cards per grid row at the given width:
// four on wide viewports, then three, two and finally one.
func GridColumns(width int) int {
	switch {
	case width >= WideWidth:
		return 4
	case width >= MediumWidth:
		return 3
	case width >= NarrowWidth:
		return 2
	default:
		return 1
	}
}
