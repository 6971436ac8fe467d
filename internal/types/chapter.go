package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChapterType string

const (
	ChapterTypeFolder ChapterType = "FOLDER"
	ChapterTypeVideo  ChapterType = "VIDEO"
	ChapterTypePDF    ChapterType = "PDF"
	ChapterTypeText   ChapterType = "TEXT"
	ChapterTypeMixed  ChapterType = "MIXED"
)

func (t ChapterType) Valid() bool {
	switch t {
	case ChapterTypeFolder, ChapterTypeVideo, ChapterTypePDF, ChapterTypeText, ChapterTypeMixed:
		return true
	}
	return false
}

// Chapter is one node of a course's content tree. ParentID nil means root.
// Type is fixed at creation; Content holds the type-tagged payload.
type Chapter struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"course_id"`
	Course    *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	ParentID  *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	SortOrder int            `gorm:"column:sort_order;not null" json:"order"`
	Type      ChapterType    `gorm:"column:node_type;not null" json:"type"`
	Content   datatypes.JSON `gorm:"column:content;type:jsonb" json:"content,omitempty"`
	CoverKey  string         `gorm:"column:cover_key" json:"-"`
	CoverURL  string         `gorm:"column:cover_url" json:"cover_url,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Chapter) TableName() string { return "chapter" }

type VideoRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PDFRef struct {
	Key           string `json:"key"`
	URL           string `json:"url"`
	ExtractedText string `json:"extracted_text"`
}

// ChapterContent is the variant payload behind Chapter.Content. Which members
// are set is governed by Chapter.Type: VIDEO carries Video, PDF carries PDF,
// TEXT carries Text, MIXED any subset, FOLDER none.
type ChapterContent struct {
	Video *VideoRef `json:"video,omitempty"`
	PDF   *PDFRef   `json:"pdf,omitempty"`
	Text  string    `json:"text,omitempty"`
}

func (cc ChapterContent) Empty() bool {
	return cc.Video == nil && cc.PDF == nil && cc.Text == ""
}

func (c *Chapter) Payload() (ChapterContent, error) {
	var cc ChapterContent
	if len(c.Content) == 0 {
		return cc, nil
	}
	if err := json.Unmarshal(c.Content, &cc); err != nil {
		return cc, fmt.Errorf("decode chapter content: %w", err)
	}
	return cc, nil
}

func (c *Chapter) SetPayload(cc ChapterContent) error {
	raw, err := json.Marshal(cc)
	if err != nil {
		return fmt.Errorf("encode chapter content: %w", err)
	}
	c.Content = datatypes.JSON(raw)
	return nil
}
