package vision

import (
	"context"
	"io"
)

// DescribePrompt is the shared prompt used by all vision adapters.
const DescribePrompt = `This photo shows a single item from a personal collection (for example a
trading card, an autographed object, a figure, or a photographed place).
Suggest a short display title and a few descriptive fields a collector would record
(for example Description, Condition, Year, Maker). Respond in plain text, one field per line,
format: Field: value. The first line must be "Title: <title>".`

// Describer suggests a title and metadata for an item photo.
type Describer interface {
	Describe(ctx context.Context, r io.Reader, mimeType string) (*Description, error)
}

type Description struct {
	Title       string            `json:"title"`
	Metadata    map[string]string `json:"metadata"`
	RawResponse string            `json:"-"`
}
