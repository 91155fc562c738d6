package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type Category struct {
	ID          int64  `json:"id" db:"id"`
	DocumentID  string `json:"documentId" db:"document_id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`
}

type Author struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	AvatarURL string `json:"avatarUrl" db:"avatar_url"`
}

// Block kinds of the article dynamic zone.
const (
	BlockRichText = "shared.rich-text"
	BlockMedia    = "shared.media"
	BlockSlider   = "shared.slider"
)

// Media is a reference to an uploaded file inside a content block.
type Media struct {
	URL             string `json:"url"`
	AlternativeText string `json:"alternativeText,omitempty"`
}

// Block is one entry of an article body. Body is markdown for rich text;
// Files holds one item for media and several for sliders.
type Block struct {
	Component string  `json:"__component"`
	Body      string  `json:"body,omitempty"`
	Files     []Media `json:"files,omitempty"`
}

// Blocks is stored as a JSONB column.
type Blocks []Block

func (b Blocks) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b)
}

func (b *Blocks) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return errors.New("blocks: unsupported source type")
	}
}

// Article is a published blog post. Category and Author are optional.
type Article struct {
	ID          int64      `json:"id"`
	DocumentID  string     `json:"documentId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Slug        string     `json:"slug"`
	CoverURL    string     `json:"coverUrl,omitempty"`
	DisplaySize string     `json:"displaySize,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Category    *Category  `json:"category,omitempty"`
	Author      *Author    `json:"author,omitempty"`
	Blocks      Blocks     `json:"blocks"`
}

type Product struct {
	ID          int64   `json:"id" db:"id"`
	DocumentID  string  `json:"documentId" db:"document_id"`
	Title       string  `json:"title" db:"title"`
	Description string  `json:"description" db:"description"`
	Slug        string  `json:"slug" db:"slug"`
	Price       float64 `json:"price" db:"price"`
	Category    string  `json:"category" db:"category"`
	InStock     bool    `json:"inStock" db:"in_stock"`
	ImageURL    string  `json:"imageUrl,omitempty" db:"image_url"`
}

// ContentFilter narrows collection queries. Empty fields match everything.
type ContentFilter struct {
	Slug     string
	Category string
}
