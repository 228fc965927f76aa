package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CellType classifies a notebook cell.
type CellType string

const (
	CellCode     CellType = "code"
	CellMarkdown CellType = "markdown"
	CellRaw      CellType = "raw"
)

// Cell is one cell of a loaded notebook.
type Cell struct {
	Type           CellType
	Source         string
	ExecutionCount int // 0 when never executed or not a code cell
	Outputs        []string
}

// Model is a loaded, immutable notebook document. Widgets render it; the pane
// controller only passes it through.
type Model struct {
	// Handle is a session-unique identity used for snapshots and session
	// restore. It is not stable across processes.
	Handle string

	URI      string
	ViewType string
	Language string
	Format   int
	Cells    []Cell
}

// rawNotebook mirrors the nbformat 4 JSON layout, limited to the fields the
// viewer consumes.
type rawNotebook struct {
	NBFormat int       `json:"nbformat"`
	Metadata rawMeta   `json:"metadata"`
	Cells    []rawCell `json:"cells"`
}

type rawMeta struct {
	LanguageInfo struct {
		Name string `json:"name"`
	} `json:"language_info"`
	Kernelspec struct {
		Language string `json:"language"`
	} `json:"kernelspec"`
}

type rawCell struct {
	CellType       string          `json:"cell_type"`
	Source         json.RawMessage `json:"source"`
	ExecutionCount *int            `json:"execution_count"`
	Outputs        []rawOutput     `json:"outputs"`
}

type rawOutput struct {
	OutputType string          `json:"output_type"`
	Text       json.RawMessage `json:"text"`
	Data       map[string]json.RawMessage `json:"data"`
	Name       string          `json:"name"`
	EValue     string          `json:"evalue"`
}

// Parse decodes nbformat JSON into a Model. A fresh Handle is assigned on
// every parse, so re-resolving the same URI yields a distinct document
// identity.
func Parse(uri string, data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("notebook %s: empty document", uri)
	}

	var raw rawNotebook
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("notebook %s: decode: %w", uri, err)
	}
	if raw.NBFormat != 0 && raw.NBFormat < 4 {
		return nil, fmt.Errorf("notebook %s: unsupported nbformat %d", uri, raw.NBFormat)
	}

	m := &Model{
		Handle:   uuid.NewString(),
		URI:      uri,
		ViewType: ViewTypeNotebook,
		Language: raw.language(),
		Format:   raw.NBFormat,
		Cells:    make([]Cell, 0, len(raw.Cells)),
	}

	for i, rc := range raw.Cells {
		cell, err := rc.toCell()
		if err != nil {
			return nil, fmt.Errorf("notebook %s: cell %d: %w", uri, i, err)
		}
		m.Cells = append(m.Cells, cell)
	}

	return m, nil
}

// PlainText wraps arbitrary bytes as a single raw cell so the fallback text
// view can reuse the notebook widget pipeline.
func PlainText(uri string, data []byte) *Model {
	return &Model{
		Handle:   uuid.NewString(),
		URI:      uri,
		ViewType: ViewTypePlainText,
		Cells:    []Cell{{Type: CellRaw, Source: string(data)}},
	}
}

func (r rawNotebook) language() string {
	if r.Metadata.LanguageInfo.Name != "" {
		return r.Metadata.LanguageInfo.Name
	}
	return r.Metadata.Kernelspec.Language
}

func (rc rawCell) toCell() (Cell, error) {
	var ct CellType
	switch rc.CellType {
	case "code":
		ct = CellCode
	case "markdown":
		ct = CellMarkdown
	case "raw", "":
		ct = CellRaw
	default:
		return Cell{}, fmt.Errorf("unknown cell_type %q", rc.CellType)
	}

	source, err := decodeMultiline(rc.Source)
	if err != nil {
		return Cell{}, fmt.Errorf("source: %w", err)
	}

	cell := Cell{Type: ct, Source: source}
	if rc.ExecutionCount != nil {
		cell.ExecutionCount = *rc.ExecutionCount
	}
	for _, out := range rc.Outputs {
		text, err := out.render()
		if err != nil {
			return Cell{}, fmt.Errorf("output: %w", err)
		}
		if text != "" {
			cell.Outputs = append(cell.Outputs, text)
		}
	}
	return cell, nil
}

// decodeMultiline handles nbformat's two source encodings: a plain string or
// an array of line strings.
func decodeMultiline(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("decode source: %w", err)
	}
	return strings.Join(lines, ""), nil
}

func (o rawOutput) render() (string, error) {
	switch o.OutputType {
	case "stream":
		return decodeMultiline(o.Text)
	case "execute_result", "display_data":
		if plain, ok := o.Data["text/plain"]; ok {
			return decodeMultiline(plain)
		}
		return "", nil
	case "error":
		return o.EValue, nil
	default:
		return "", nil
	}
}

// CellCount returns the number of cells.
func (m *Model) CellCount() int {
	if m == nil {
		return 0
	}
	return len(m.Cells)
}
