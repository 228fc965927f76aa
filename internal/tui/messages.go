package tui

import (
	"github.com/Dicklesworthstone/nbview/internal/document"
	"github.com/Dicklesworthstone/nbview/internal/resolver"
)

// assignDoneMsg is sent when a controller finishes (or abandons) an input
// switch.
type assignDoneMsg struct {
	groupID int
	input   document.InputRef
	err     error
}

// documentChangedMsg is sent when a watched document changes on disk.
type documentChangedMsg struct {
	change resolver.Change
}

// watcherClosedMsg is sent when the change feed drains.
type watcherClosedMsg struct{}

// errMsg is sent when a background operation fails.
type errMsg struct {
	err error
}

func changeVerb(t resolver.ChangeType) string {
	switch t {
	case resolver.DocumentDeleted:
		return "deleted"
	default:
		return "changed"
	}
}
