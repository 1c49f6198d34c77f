// Package scene holds the scene catalog and the controller that loads a
// scene's assets and runs the slide transition between scenes.
package scene

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation error in this package.
var ErrInvalid = errors.New("invalid scene")

// Anchor is a named point of interest in relative coordinates (0-1).
type Anchor struct {
	Name string  `json:"name" yaml:"name"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// Scene is one primary image with its comparison images and labels.
type Scene struct {
	Name           string   `json:"name" yaml:"name"`
	PrimaryURL     string   `json:"primaryImageUrl" yaml:"primaryImageUrl"`
	ComparisonURLs []string `json:"comparisonImageUrls" yaml:"comparisonImageUrls"`
	Labels         []string `json:"labels" yaml:"labels"`
	Thumbnail      string   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Anchors        []Anchor `json:"anchors,omitempty" yaml:"anchors,omitempty"`
}

// Validate checks the URLs and that labels line up with comparisons.
func (s Scene) Validate() error {
	if s.PrimaryURL == "" {
		return fmt.Errorf("%w %q: missing primary image", ErrInvalid, s.Name)
	}
	if len(s.ComparisonURLs) == 0 {
		return fmt.Errorf("%w %q: no comparison images", ErrInvalid, s.Name)
	}
	if len(s.Labels) != len(s.ComparisonURLs) {
		return fmt.Errorf("%w %q: %d labels for %d comparison images",
			ErrInvalid, s.Name, len(s.Labels), len(s.ComparisonURLs))
	}
	for i, u := range s.ComparisonURLs {
		if u == "" {
			return fmt.Errorf("%w %q: comparison %d has no url", ErrInvalid, s.Name, i)
		}
	}
	for _, a := range s.Anchors {
		if a.X < 0 || a.X > 1 || a.Y < 0 || a.Y > 1 {
			return fmt.Errorf("%w %q: anchor %q outside 0-1", ErrInvalid, s.Name, a.Name)
		}
	}
	return nil
}

// ThumbnailURL falls back to the primary image when no thumbnail is set.
func (s Scene) ThumbnailURL() string {
	if s.Thumbnail != "" {
		return s.Thumbnail
	}
	return s.PrimaryURL
}

// Catalog is the ordered list of scenes.
type Catalog []Scene

// Validate checks every scene.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: empty catalog", ErrInvalid)
	}
	for i, s := range c {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scene %d: %w", i, err)
		}
	}
	return nil
}

// IndexOf returns the first scene using primaryURL, or -1.
func (c Catalog) IndexOf(primaryURL string) int {
	for i, s := range c {
		if s.PrimaryURL == primaryURL {
			return i
		}
	}
	return -1
}
