package vision

import (
	"strings"
)

// ParseResponse parses a model response made of "Field: value" lines. The
// "Title" field is lifted out of the metadata.
func ParseResponse(raw string) *Description {
	desc := &Description{Metadata: make(map[string]string), RawResponse: raw}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.Trim(strings.TrimSpace(key), "*")
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}

		if strings.EqualFold(key, "title") {
			if desc.Title == "" {
				desc.Title = value
			}
			continue
		}
		if _, exists := desc.Metadata[key]; !exists {
			desc.Metadata[key] = value
		}
	}

	return desc
}
