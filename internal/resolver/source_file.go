package resolver

import (
	"context"
	"fmt"
	"os"

	"github.com/Dicklesworthstone/nbview/internal/document"
)

// maxDocumentBytes bounds what the viewer will load into memory at once.
const maxDocumentBytes = 64 << 20

// FileSource reads documents from the local filesystem.
type FileSource struct{}

// Fetch reads the file behind a file:// URI or bare path.
func (FileSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := document.LocalPath(uri)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxDocumentBytes {
		return nil, fmt.Errorf("%s is %d bytes, over the %d byte limit", path, info.Size(), maxDocumentBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}
