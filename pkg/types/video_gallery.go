package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// VideoGalleryEntry is one theme-convention video record attached to a
// gallery image. Keys in the parent VideoGallery map are gallery image IDs
// rendered as strings.
type VideoGalleryEntry struct {
	UploadVideoURL string `json:"upload_video_url"`
	VideoTitle     string `json:"video_title,omitempty"`
	VideoControls  string `json:"video_controls,omitempty"`
	Autoplay       string `json:"autoplay,omitempty"`
	AudioStatus    string `json:"audio_status,omitempty"`
	HideInfo       string `json:"hide_gallery_img_info,omitempty"`
}

// VideoGallery maps a gallery image ID (as a string key) to its video entry.
type VideoGallery map[string]VideoGalleryEntry

// Value marshals the gallery into jsonb.
func (g VideoGallery) Value() (driver.Value, error) {
	if g == nil {
		return nil, nil
	}
	return json.Marshal(g)
}

// Scan decodes the jsonb payload.
func (g *VideoGallery) Scan(value interface{}) error {
	if value == nil {
		*g = nil
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("video gallery: %w", err)
	}
	return json.Unmarshal(raw, g)
}

// FirstWithVideo returns the first entry carrying a non-empty video URL,
// scanning keys in ascending image-ID order.
func (g VideoGallery) FirstWithVideo() (string, VideoGalleryEntry, bool) {
	keys := make([]string, 0, len(g))
	for key := range g {
		keys = append(keys, key)
	}
	sortNumericStrings(keys)
	for _, key := range keys {
		if g[key].UploadVideoURL != "" {
			return key, g[key], true
		}
	}
	return "", VideoGalleryEntry{}, false
}

func sortNumericStrings(keys []string) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && numericLess(keys[j], keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

func numericLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
