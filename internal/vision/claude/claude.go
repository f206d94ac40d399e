package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/vbonduro/setasidevault/internal/vision"
)

// maxTokens comfortably fits a title plus a handful of metadata lines.
const maxTokens = 512

type ClaudeDescriber struct {
	client *anthropic.Client
	model  string
}

// NewClaudeDescriber creates a describer for the Anthropic Messages API.
// baseURL may be empty to use the public endpoint.
func NewClaudeDescriber(apiKey, model, baseURL string) *ClaudeDescriber {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeDescriber{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (d *ClaudeDescriber) Describe(ctx context.Context, r io.Reader, mimeType string) (*vision.Description, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := d.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(d.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.MessageContentSource{
					Type:      anthropic.MessagesContentSourceTypeBase64,
					MediaType: normaliseMIME(mimeType),
					Data:      base64.StdEncoding.EncodeToString(imageData),
				}),
				anthropic.NewTextMessageContent(vision.DescribePrompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			text.WriteString(c.GetText())
		}
	}

	return vision.ParseResponse(text.String()), nil
}

// normaliseMIME maps the image types the Messages API accepts and falls back
// to JPEG for anything else.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
