package layout

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"reviewlist/internal/typeset"
)

// Insets are the distances from the row edges to its content.
type Insets struct {
	Top    float64 `toml:"top"`
	Left   float64 `toml:"left"`
	Bottom float64 `toml:"bottom"`
	Right  float64 `toml:"right"`
}

type Size struct {
	W float64 `toml:"width"`
	H float64 `toml:"height"`
}

// MaxPhotoSlots caps the photo strip whatever the theme asks for.
const MaxPhotoSlots = 5

// Theme holds every fixed metric of a review row.
type Theme struct {
	Insets     Insets  `toml:"insets"`
	AvatarSize Size    `toml:"avatar_size"`
	NameHeight float64 `toml:"name_height"`
	RatingSize Size    `toml:"rating_size"`
	PhotoSize  Size    `toml:"photo_size"`
	MaxPhotos  int     `toml:"max_photos"`

	AvatarToName      float64 `toml:"avatar_to_name"`
	NameToRating      float64 `toml:"name_to_rating"`
	RatingToText      float64 `toml:"rating_to_text"`
	RatingToPhotos    float64 `toml:"rating_to_photos"`
	PhotoSpacing      float64 `toml:"photo_spacing"`
	PhotosToText      float64 `toml:"photos_to_text"`
	TextToCreated     float64 `toml:"text_to_created"`
	ShowMoreToCreated float64 `toml:"show_more_to_created"`

	// SummaryHeight is what a widget resolves AutomaticHeight to for the summary row.
	SummaryHeight   float64 `toml:"summary_height"`
	DefaultMaxLines int     `toml:"default_max_lines"`
	ShowMoreText    string  `toml:"show_more_text"`

	FontSizes typeset.Sizes `toml:"font_sizes"`
}

func DefaultTheme() Theme {
	return Theme{
		Insets:            Insets{Top: 9, Left: 12, Bottom: 9, Right: 12},
		AvatarSize:        Size{W: 36, H: 36},
		NameHeight:        20,
		RatingSize:        Size{W: 84, H: 16},
		PhotoSize:         Size{W: 55, H: 66},
		MaxPhotos:         5,
		AvatarToName:      10,
		NameToRating:      6,
		RatingToText:      6,
		RatingToPhotos:    10,
		PhotoSpacing:      8,
		PhotosToText:      10,
		TextToCreated:     6,
		ShowMoreToCreated: 6,
		SummaryHeight:     44,
		DefaultMaxLines:   3,
		ShowMoreText:      "Show full review...",
		FontSizes:         typeset.DefaultSizes(),
	}
}

// LoadTheme reads a TOML file on top of DefaultTheme; keys absent from the
// file keep their defaults. An empty path returns the defaults.
func LoadTheme(path string) (Theme, error) {
	t := DefaultTheme()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("read theme: %w", err)
	}
	if err := toml.Unmarshal(b, &t); err != nil {
		return Theme{}, fmt.Errorf("parse theme %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Theme{}, fmt.Errorf("theme %s: %w", path, err)
	}
	return t, nil
}

func (t Theme) Validate() error {
	switch {
	case t.MaxPhotos < 0 || t.MaxPhotos > MaxPhotoSlots:
		return fmt.Errorf("max_photos must be within 0..%d, got %d", MaxPhotoSlots, t.MaxPhotos)
	case t.PhotoSize.W <= 0 || t.PhotoSize.H <= 0:
		return fmt.Errorf("photo_size must be positive")
	case t.PhotoSpacing < 0:
		return fmt.Errorf("photo_spacing must not be negative")
	case t.DefaultMaxLines < 0:
		return fmt.Errorf("default_max_lines must not be negative")
	case t.ShowMoreText == "":
		return fmt.Errorf("show_more_text is required")
	}
	return nil
}
