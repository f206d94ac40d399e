package domain

import (
	"fmt"
	"strings"
	"time"
)

// ImageURLPrefix is the public path under which stored files are served.
const ImageURLPrefix = "/api/images/"

// ImageURL returns the public URL of a stored file, or "" for no file.
func ImageURL(filename string) string {
	if filename == "" {
		return ""
	}
	return ImageURLPrefix + filename
}

type AspectRatio string

const (
	AspectSquare    AspectRatio = "square"
	AspectPortrait  AspectRatio = "portrait"
	AspectLandscape AspectRatio = "landscape"
)

// ParseAspectRatio accepts any letter case and returns the canonical lower-case value.
func ParseAspectRatio(s string) (AspectRatio, error) {
	switch r := AspectRatio(strings.ToLower(strings.TrimSpace(s))); r {
	case AspectSquare, AspectPortrait, AspectLandscape:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown aspect ratio %q", ErrInvalidRequest, s)
	}
}

type Collection struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	CoverPhoto     string            `json:"coverPhoto,omitempty"`
	AspectRatio    AspectRatio       `json:"aspectRatio"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ItemCategories []string          `json:"itemCategories,omitempty"`
	ItemCount      int               `json:"itemCount"`
	CreatedAt      time.Time         `json:"createdAt"`
}

type Item struct {
	ID           string            `json:"id"`
	CollectionID string            `json:"collectionId,omitempty"`
	URL          string            `json:"url"`
	Title        string            `json:"title"`
	Filename     string            `json:"filename"`
	Category     string            `json:"category,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	UploadedAt   time.Time         `json:"uploadedAt"`
}

type Story struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	ItemID       string     `json:"itemId,omitempty"`
	CollectionID string     `json:"collectionId,omitempty"`
	CoverImage   string     `json:"coverImage,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// MediaFile describes one file in the image store.
type MediaFile struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}
