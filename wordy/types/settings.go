package types

// UpdateEditorSettingsRequest leaves nil fields unchanged.
type UpdateEditorSettingsRequest struct {
	SpellCheck    *bool `json:"spell_check,omitempty"`
	ShowWordCount *bool `json:"show_word_count,omitempty"`
	FocusMode     *bool `json:"focus_mode,omitempty"`
	AutoSave      *bool `json:"auto_save,omitempty"`
}

func (r UpdateEditorSettingsRequest) Empty() bool {
	return r.SpellCheck == nil && r.ShowWordCount == nil && r.FocusMode == nil && r.AutoSave == nil
}
