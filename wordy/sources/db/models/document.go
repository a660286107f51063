package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocumentTypeSpace  DocumentType = "space"
	DocumentTypeFolder DocumentType = "folder"
	DocumentTypeNote   DocumentType = "note"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeSpace, DocumentTypeFolder, DocumentTypeNote:
		return true
	}
	return false
}

// CanContain reports whether a document of type t may be the parent of others.
func (t DocumentType) CanContain() bool {
	return t == DocumentTypeSpace || t == DocumentTypeFolder
}

// Document is a node of a user's tree: spaces at the root, folders and notes
// beneath them. CurrentRevisionID, when set, points at a Revision of this
// same document.
type Document struct {
	ID                uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	Name              string       `json:"name" gorm:"type:varchar(255);not null"`
	Type              DocumentType `json:"type" gorm:"type:varchar(16);not null"`
	Handle            string       `json:"handle" gorm:"type:varchar(255);not null;uniqueIndex"`
	UserID            int          `json:"user_id" gorm:"not null;index"`
	User              User         `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	ParentID          *uuid.UUID   `json:"parent_id" gorm:"type:uuid;index"`
	CurrentRevisionID *uuid.UUID   `json:"current_revision_id" gorm:"type:uuid"`
	CreatedAt         time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
