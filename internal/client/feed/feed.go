// Package feed groups articles into calendar weeks and lays each week out
// with a template chosen by its article count.
package feed

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// Bucket is one week of articles, most recent first. It is never empty.
type Bucket struct {
	WeekStart time.Time
	Articles  []models.Article
	Template  Template
	Label     string
}

// WeekStart returns local midnight of the most recent Sunday at or before t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, loc)
}

// Label renders the week as "May 5 - May 11, 2024". Weeks that span a new
// year carry both years.
func Label(start time.Time) string {
	end := start.AddDate(0, 0, 6)
	if start.Year() != end.Year() {
		return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
}

// Group buckets the dated articles by week in loc (time.Local when nil).
// Buckets are ordered newest week first; articles inside a bucket newest
// first, keeping input order for equal dates. Undated articles are left out.
func Group(articles []models.Article, loc *time.Location) []Bucket {
	if loc == nil {
		loc = time.Local
	}

	dated := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if a.PublishedAt != nil {
			dated = append(dated, a)
		}
	}
	slices.SortStableFunc(dated, func(a, b models.Article) int {
		return b.PublishedAt.Compare(*a.PublishedAt)
	})

	var buckets []Bucket
	for _, a := range dated {
		start := WeekStart(*a.PublishedAt, loc)
		if n := len(buckets); n > 0 && buckets[n-1].WeekStart.Equal(start) {
			buckets[n-1].Articles = append(buckets[n-1].Articles, a)
			continue
		}
		buckets = append(buckets, Bucket{WeekStart: start, Articles: []models.Article{a}, Label: Label(start)})
	}
	for i := range buckets {
		buckets[i].Template = TemplateFor(len(buckets[i].Articles))
	}
	return buckets
}

// PlacedColumn is a template column filled with articles.
type PlacedColumn struct {
	Weight   int
	Articles []models.Article
}

type PlacedRow struct {
	Columns []PlacedColumn
}

// Arrange places the bucket's articles into its template for a viewport
// width. Templates fill slots row by row, column by column. Below
// NarrowWidth every column becomes its own full-width row. Grids flow
// into GridColumns(width) columns.
func (b Bucket) Arrange(width int) []PlacedRow {
	if b.Template.Grid {
		return arrangeGrid(b.Articles, GridColumns(width))
	}

	var rows []PlacedRow
	next := 0
	for _, r := range b.Template.Rows {
		row := PlacedRow{}
		for _, c := range r.Columns {
			end := min(next+c.Slots, len(b.Articles))
			row.Columns = append(row.Columns, PlacedColumn{Weight: c.Weight, Articles: b.Articles[next:end]})
			next = end
		}
		rows = append(rows, row)
	}

	if width >= NarrowWidth {
		return rows
	}
	var stacked []PlacedRow
	for _, r := range rows {
		for _, c := range r.Columns {
			stacked = append(stacked, PlacedRow{Columns: []PlacedColumn{{Weight: 1, Articles: c.Articles}}})
		}
	}
	return stacked
}

func arrangeGrid(articles []models.Article, perRow int) []PlacedRow {
	var rows []PlacedRow
	for chunk := range slices.Chunk(articles, perRow) {
		row := PlacedRow{}
		for _, a := range chunk {
			row.Columns = append(row.Columns, PlacedColumn{Weight: 1, Articles: []models.Article{a}})
		}
		rows = append(rows, row)
	}
	return rows
}
