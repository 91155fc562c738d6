// Package render draws client views for the terminal: feed weeks as
// lipgloss card rows and article bodies as glamour-rendered markdown.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/storefront/internal/client/feed"
	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// Glamour style names accepted by New.
const (
	StyleAuto  = "auto"
	StylePlain = "notty"
)

const (
	columnGap    = 1
	minCardWidth = 16
	descLines    = 3
)

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#6B7280")
	danger = lipgloss.Color("#E53935")
)

// Styles groups the lipgloss styles used by the views.
type Styles struct {
	Title     lipgloss.Style
	Heading   lipgloss.Style
	Muted     lipgloss.Style
	Card      lipgloss.Style
	Tab       lipgloss.Style
	TabActive lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true),
		Heading:   lipgloss.NewStyle().Bold(true).Foreground(accent).MarginTop(1),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Card:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
		Tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(muted),
		TabActive: lipgloss.NewStyle().Padding(0, 1).Bold(true).Underline(true),
		Error:     lipgloss.NewStyle().Foreground(danger),
		Success:   lipgloss.NewStyle().Foreground(accent),
	}
}

// Renderer renders views for a fixed viewport width. media turns API
// media paths into absolute URLs.
type Renderer struct {
	width  int
	style  string
	media  func(string) string
	styles Styles
}

func New(width int, style string, media func(string) string) *Renderer {
	if media == nil {
		media = func(s string) string { return s }
	}
	return &Renderer{width: width, style: style, media: media, styles: DefaultStyles()}
}

func (r *Renderer) Width() int {
	return r.width
}

func (r *Renderer) Styles() Styles {
	return r.styles
}

// Tabs renders a row of filter labels with active highlighted.
func (r *Renderer) Tabs(labels []string, active string) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == active {
			parts = append(parts, r.styles.TabActive.Render(l))
		} else {
			parts = append(parts, r.styles.Tab.Render(l))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// Feed renders the weekly buckets, newest first, each under its date label.
func (r *Renderer) Feed(buckets []feed.Bucket) string {
	if len(buckets) == 0 {
		return r.styles.Muted.Render("No articles yet.")
	}
	var sb strings.Builder
	for i, b := range buckets {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(r.styles.Heading.Render(b.Label))
		sb.WriteString("\n")
		for _, row := range b.Arrange(r.width) {
			sb.WriteString(r.row(row))
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// columnWidths splits the viewport between columns by weight.
func (r *Renderer) columnWidths(weights []int) []int {
	total := 0
	for _, w := range weights {
		total += w
	}
	avail := r.width - columnGap*(len(weights)-1)
	out := make([]int, len(weights))
	used := 0
	for i, w := range weights {
		out[i] = max(avail*w/total, minCardWidth)
		used += out[i]
	}
	// rounding leftovers go to the last column
	if rest := avail - used; rest > 0 {
		out[len(out)-1] += rest
	}
	return out
}

func (r *Renderer) row(row feed.PlacedRow) string {
	weights := make([]int, len(row.Columns))
	for i, c := range row.Columns {
		weights[i] = c.Weight
	}
	widths := r.columnWidths(weights)

	cols := make([]string, 0, len(row.Columns)*2)
	for i, c := range row.Columns {
		cards := make([]string, 0, len(c.Articles))
		for _, a := range c.Articles {
			cards = append(cards, r.articleCard(a, widths[i], c.Weight > 1))
		}
		if i > 0 {
			cols = append(cols, strings.Repeat(" ", columnGap))
		}
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, cards...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (r *Renderer) card(width int, lines ...string) string {
	// lipgloss widths include padding but not the border
	border := r.styles.Card.GetHorizontalBorderSize()
	return r.styles.Card.Width(max(width-border, 1)).Render(strings.Join(lines, "\n"))
}

func truncateLines(s string, width, n int) string {
	wrapped := lipgloss.NewStyle().Width(width).Render(s)
	lines := strings.Split(wrapped, "\n")
	if len(lines) <= n {
		return wrapped
	}
	return strings.Join(lines[:n], "\n") + "..."
}

func (r *Renderer) articleCard(a models.Article, width int, large bool) string {
	inner := max(width-r.styles.Card.GetHorizontalFrameSize(), 1)
	meta := []string{}
	if c := a.CategoryName(); c != "" {
		meta = append(meta, strings.ToUpper(c))
	}
	if a.PublishedAt != nil {
		meta = append(meta, a.PublishedAt.Local().Format("Jan 2, 2006"))
	}

	lines := []string{r.styles.Title.Render(a.Title)}
	if len(meta) > 0 {
		lines = append(lines, r.styles.Muted.Render(strings.Join(meta, " · ")))
	}
	if a.Description != "" {
		n := descLines
		if large {
			n *= 2
		}
		lines = append(lines, truncateLines(a.Description, inner, n))
	}
	if a.Author != nil && a.Author.Name != "" {
		lines = append(lines, r.styles.Muted.Render("by "+a.Author.Name))
	}
	lines = append(lines, r.styles.Muted.Render("article "+a.Slug))
	return r.card(width, lines...)
}

func (r *Renderer) markdown(md string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(r.width)}
	if r.style == StyleAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(r.style))
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return tr.Render(md)
}

// Article renders the full article: header, then each content block in order.
func (r *Renderer) Article(a *models.Article) (string, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", a.Title)
	if a.Description != "" {
		fmt.Fprintf(&md, "*%s*\n\n", a.Description)
	}
	if a.Cover != nil && a.Cover.URL != "" {
		fmt.Fprintf(&md, "Cover: %s\n\n", r.media(a.Cover.URL))
	}
	for _, b := range a.Blocks {
		switch b.Component {
		case models.BlockRichText:
			md.WriteString(b.Body)
			md.WriteString("\n\n")
		case models.BlockMedia, models.BlockSlider:
			for _, f := range b.Files {
				alt := f.AlternativeText
				if alt == "" {
					alt = "image"
				}
				fmt.Fprintf(&md, "- %s: %s\n", alt, r.media(f.URL))
			}
			md.WriteString("\n")
		}
	}

	body, err := r.markdown(md.String())
	if err != nil {
		return "", err
	}

	var meta []string
	if a.Author != nil && a.Author.Name != "" {
		meta = append(meta, a.Author.Name)
	}
	if c := a.CategoryName(); c != "" {
		meta = append(meta, c)
	}
	if a.PublishedAt != nil {
		meta = append(meta, a.PublishedAt.Local().Format("January 2, 2006"))
	}
	if len(meta) == 0 {
		return body, nil
	}
	return r.styles.Muted.Render(strings.Join(meta, " · ")) + "\n" + body, nil
}

func price(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

func (r *Renderer) productCard(p models.Product, width int) string {
	stock := r.styles.Success.Render("in stock")
	if !p.InStock {
		stock = r.styles.Error.Render("sold out")
	}
	lines := []string{
		r.styles.Title.Render(p.Title),
		price(p.Price) + "  " + stock,
	}
	if p.Category != "" {
		lines = append(lines, r.styles.Muted.Render(p.Category))
	}
	lines = append(lines, r.styles.Muted.Render("product "+p.Slug))
	return r.card(width, lines...)
}

// Products renders the catalogue as a grid that narrows with the viewport.
func (r *Renderer) Products(products []models.Product) string {
	if len(products) == 0 {
		return r.styles.Muted.Render("No products found.")
	}
	perRow := feed.GridColumns(r.width)
	weights := make([]int, perRow)
	for i := range weights {
		weights[i] = 1
	}
	width := r.columnWidths(weights)[0]

	var rows []string
	for i := 0; i < len(products); i += perRow {
		end := min(i+perRow, len(products))
		var cells []string
		for j, p := range products[i:end] {
			if j > 0 {
				cells = append(cells, strings.Repeat(" ", columnGap))
			}
			cells = append(cells, r.productCard(p, width))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

// Product renders one product with its description as markdown.
func (r *Renderer) Product(p *models.Product) (string, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n**%s**", p.Title, price(p.Price))
	if p.Category != "" {
		fmt.Fprintf(&md, " · %s", p.Category)
	}
	if p.InStock {
		md.WriteString(" · in stock\n\n")
	} else {
		md.WriteString(" · sold out\n\n")
	}
	if p.Description != "" {
		md.WriteString(p.Description)
		md.WriteString("\n\n")
	}
	if p.Image != nil && p.Image.URL != "" {
		fmt.Fprintf(&md, "Image: %s\n", r.media(p.Image.URL))
	}
	return r.markdown(md.String())
}

// Profile renders the account card. Empty fields show as "-".
func (r *Renderer) Profile(p *models.Profile) string {
	dash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	avatar := ""
	if p.AvatarURL != "" {
		avatar = r.media(p.AvatarURL)
	}
	rows := [][2]string{
		{"Username", p.Username},
		{"Email", p.Email},
		{"Location", dash(p.Location)},
		{"Phone", dash(p.PhoneNumber)},
		{"Avatar", dash(avatar)},
		{"Member since", dash(p.CreatedAt)},
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, r.styles.Title.Render("Account"))
	for _, kv := range rows {
		lines = append(lines, fmt.Sprintf("%-13s %s", kv[0]+":", kv[1]))
	}
	return r.card(min(r.width, 72), lines...)
}
