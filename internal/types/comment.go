package types

import (
	"time"

	"github.com/google/uuid"
)

// Comment belongs to a chapter's discussion thread. ParentID links replies
// into a tree; all comments of a chapter share its chapter_id, so a thread
// cascade deletes by chapter_id alone.
type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ChapterID uuid.UUID  `gorm:"type:uuid;not null;index" json:"chapter_id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Body      string     `gorm:"column:body;not null" json:"body"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Comment) TableName() string { return "comment" }
