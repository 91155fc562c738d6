package models

import "time"

// Block components of an article body.
const (
	BlockRichText = "shared.rich-text"
	BlockMedia    = "shared.media"
	BlockSlider   = "shared.slider"
)

type Media struct {
	URL             string `json:"url"`
	AlternativeText string `json:"alternativeText"`
}

type Category struct {
	DocumentID  string `json:"documentId"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type Author struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar *Media `json:"avatar"`
}

type Block struct {
	Component string  `json:"component"`
	Body      string  `json:"body"`
	Files     []Media `json:"files"`
}

// Article is read-only for the client. PublishedAt is nil for drafts and
// undated entries.
type Article struct {
	DocumentID  string     `json:"documentId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Slug        string     `json:"slug"`
	DisplaySize string     `json:"displaySize"`
	PublishedAt *time.Time `json:"publishedAt"`
	Cover       *Media     `json:"cover"`
	Category    *Category  `json:"category"`
	Author      *Author    `json:"author"`
	Blocks      []Block    `json:"blocks"`
}

// CategoryName returns the category name or "" for uncategorised articles.
func (a *Article) CategoryName() string {
	if a.Category == nil {
		return ""
	}
	return a.Category.Name
}

type Product struct {
	DocumentID  string  `json:"documentId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Slug        string  `json:"slug"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	InStock     bool    `json:"inStock"`
	Image       *Media  `json:"image"`
}
