package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite rows are never hard-deleted: removing a favorite stamps DeletedAt
// and adding it again clears the stamp on the same row.
type Favorite struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     int        `json:"user_id" gorm:"not null;uniqueIndex:idx_favorites_user_document"`
	DocumentID uuid.UUID  `json:"document_id" gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_document"`
	Document   Document   `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `json:"-" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"-" gorm:"autoUpdateTime"`
	DeletedAt  *time.Time `json:"-" gorm:"index"`
}

func (Favorite) TableName() string {
	return "favorites"
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FavoriteState is either FavoriteActive or FavoriteDeleted.
type FavoriteState interface {
	favoriteState()
}

type FavoriteActive struct{}

type FavoriteDeleted struct {
	At time.Time
}

func (FavoriteActive) favoriteState()  {}
func (FavoriteDeleted) favoriteState() {}

func (f Favorite) State() FavoriteState {
	if f.DeletedAt == nil {
		return FavoriteActive{}
	}
	return FavoriteDeleted{At: *f.DeletedAt}
}

func (f Favorite) IsActive() bool {
	_, ok := f.State().(FavoriteActive)
	return ok
}
