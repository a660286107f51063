package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Revision indexes one immutable content snapshot of a document. The body
// itself lives in the content store at ContentPath; only RevisionName may
// change after creation.
type Revision struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DocumentID   uuid.UUID `json:"document_id" gorm:"type:uuid;not null;index"`
	Document     Document  `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
	UserID       int       `json:"user_id" gorm:"not null"`
	RevisionName *string   `json:"revision_name" gorm:"type:varchar(255)"`
	Checksum     *string   `json:"checksum" gorm:"type:varchar(128)"`
	Text         string    `json:"-" gorm:"type:text;not null"`
	ContentPath  string    `json:"content_path" gorm:"type:varchar(512);not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Revision) TableName() string {
	return "revisions"
}

func (r *Revision) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CurrentRevision is the projection returned when resolving a document's
// current revision pointer.
type CurrentRevision struct {
	ID        uuid.UUID   `json:"id"`
	Text      string      `json:"text"`
	Checksum  *string     `json:"checksum"`
	CreatedAt time.Time   `json:"created_at"`
	Document  DocumentRef `json:"document"`
}

type DocumentRef struct {
	ID uuid.UUID `json:"id"`
}
