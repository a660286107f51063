package models

import "time"

// EditorSettings has no column defaults on purpose: gorm would substitute a
// default for every false bool on insert.
type EditorSettings struct {
	UserID        int       `json:"-" gorm:"primaryKey;autoIncrement:false"`
	User          User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	SpellCheck    bool      `json:"spell_check" gorm:"not null"`
	ShowWordCount bool      `json:"show_word_count" gorm:"not null"`
	FocusMode     bool      `json:"focus_mode" gorm:"not null"`
	AutoSave      bool      `json:"auto_save" gorm:"not null"`
	CreatedAt     time.Time `json:"-" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (EditorSettings) TableName() string {
	return "editor_settings"
}

// DefaultEditorSettings is what a user sees before ever saving settings.
func DefaultEditorSettings(userID int) EditorSettings {
	return EditorSettings{
		UserID:        userID,
		SpellCheck:    true,
		ShowWordCount: true,
		FocusMode:     false,
		AutoSave:      true,
	}
}
