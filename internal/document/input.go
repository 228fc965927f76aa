// Package document defines input references and loaded notebook models.
package document

import (
	"fmt"
	"strings"
)

// ViewTypeNotebook is the view type handled by the built-in notebook widget.
const ViewTypeNotebook = "notebook"

// ViewTypePlainText is the fallback view type for the open-as-text recovery path.
const ViewTypePlainText = "plaintext"

// InputRef identifies what a pane should display: a resource URI plus the
// view type that should render it. It is distinct from the loaded Model.
type InputRef struct {
	URI      string
	ViewType string
}

// NewInputRef builds an InputRef, defaulting the view type from the URI's
// extension when none is given.
func NewInputRef(uri, viewType string) InputRef {
	if viewType == "" {
		viewType = ViewTypeForURI(uri)
	}
	return InputRef{URI: uri, ViewType: viewType}
}

// IsZero reports whether the reference is empty.
func (r InputRef) IsZero() bool {
	return r.URI == "" && r.ViewType == ""
}

// Key returns the identity key used for widget leases and view-state lookups.
func (r InputRef) Key() string {
	return r.ViewType + ":" + r.URI
}

// Matches reports whether two references identify the same document and view.
func (r InputRef) Matches(other InputRef) bool {
	return r.URI == other.URI && r.ViewType == other.ViewType
}

func (r InputRef) String() string {
	if r.IsZero() {
		return "<empty>"
	}
	return r.Key()
}

// AsPlainText returns the same resource retargeted at the plain text view.
func (r InputRef) AsPlainText() InputRef {
	return InputRef{URI: r.URI, ViewType: ViewTypePlainText}
}

// ViewTypeForURI guesses a view type from the URI's extension.
func ViewTypeForURI(uri string) string {
	trimmed := strings.TrimSuffix(uri, "/")
	if strings.HasSuffix(trimmed, ".ipynb") || strings.HasSuffix(trimmed, ".nb.json") {
		return ViewTypeNotebook
	}
	return ViewTypePlainText
}

// Scheme returns the URI scheme, or "file" when the URI is a bare path.
func Scheme(uri string) string {
	idx := strings.Index(uri, "://")
	if idx <= 0 {
		return "file"
	}
	return uri[:idx]
}

// LocalPath strips the file scheme prefix and returns the filesystem path.
// It fails for non-local URIs.
func LocalPath(uri string) (string, error) {
	switch Scheme(uri) {
	case "file":
		return strings.TrimPrefix(uri, "file://"), nil
	default:
		return "", fmt.Errorf("uri %q is not local", uri)
	}
}
