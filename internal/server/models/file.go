package models

import "time"

// Upload providers recorded on UploadFile.Provider.
const (
	ProviderLocal = "local"
	ProviderS3    = "aws-s3"
)

// UploadFile describes a stored media file. Size is in kilobytes,
// rounded to two decimals.
type UploadFile struct {
	ID              int64     `json:"id" db:"id"`
	DocumentID      string    `json:"documentId" db:"document_id"`
	Name            string    `json:"name" db:"name"`
	AlternativeText string    `json:"alternativeText" db:"alternative_text"`
	Caption         string    `json:"caption" db:"caption"`
	Hash            string    `json:"hash" db:"hash"`
	Ext             string    `json:"ext" db:"ext"`
	Mime            string    `json:"mime" db:"mime"`
	Size            float64   `json:"size" db:"size_kb"`
	URL             string    `json:"url" db:"url"`
	Provider        string    `json:"provider" db:"provider"`
	CreatedBy       int64     `json:"-" db:"created_by"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}
