// Package viewstate keeps per-widget visual state across input switches and,
// through the sqlite layer, across application restarts.
package viewstate

// State is the serializable visual state of a render widget: where the user
// was looking, independent of document content. The zero value means "no
// saved state".
type State struct {
	ScrollOffset int   `json:"scroll_offset"`
	SelectedCell int   `json:"selected_cell"`
	Collapsed    []int `json:"collapsed,omitempty"`
	FocusEditor  bool  `json:"focus_editor,omitempty"`
}

// IsZero reports whether the state carries no information.
func (s State) IsZero() bool {
	return s.ScrollOffset == 0 && s.SelectedCell == 0 && len(s.Collapsed) == 0 && !s.FocusEditor
}

// Clone returns a deep copy. Collapsed is the only reference field.
func (s State) Clone() State {
	out := s
	if len(s.Collapsed) > 0 {
		out.Collapsed = append([]int(nil), s.Collapsed...)
	}
	return out
}
