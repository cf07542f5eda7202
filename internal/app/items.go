package app

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"reviewlist/internal/domain"
	"reviewlist/internal/layout"
	"reviewlist/internal/typeset"
)

const maxRating = 5

// ItemBuilder turns decoded reviews into row descriptors with the list's styles.
type ItemBuilder struct {
	fonts    *typeset.Fonts
	maxLines int
}

func NewItemBuilder(fonts *typeset.Fonts, maxLines int) *ItemBuilder {
	return &ItemBuilder{fonts: fonts, maxLines: maxLines}
}

func (b *ItemBuilder) Build(r domain.Review) layout.Descriptor {
	rating := min(max(r.Rating, 0), maxRating)
	return layout.Descriptor{
		ID:        uuid.New(),
		Name:      typeset.Block{Text: fullName(r), Font: b.fonts.Username, Color: typeset.Black},
		Rating:    rating,
		Stars:     typeset.Block{Text: RatingStars(rating), Font: b.fonts.Username, Color: typeset.Accent},
		Text:      typeset.Block{Text: strings.TrimSpace(r.Text), Font: b.fonts.Body, Color: typeset.Black},
		Created:   typeset.Block{Text: strings.TrimSpace(r.Created), Font: b.fonts.Created, Color: typeset.Gray},
		MaxLines:  b.maxLines,
		AvatarRef: avatarRef(r),
		PhotoRefs: photoRefs(r.PhotoURLs),
	}
}

func fullName(r domain.Review) string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

func avatarRef(r domain.Review) string {
	if r.AvatarURL == nil {
		return ""
	}
	return strings.TrimSpace(*r.AvatarURL)
}

// photoRefs drops blank entries; an empty result is nil so that "no photos"
// has a single representation.
func photoRefs(in []string) []string {
	var out []string
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// RatingStars renders a rating as five filled or hollow stars.
func RatingStars(rating int) string {
	rating = min(max(rating, 0), maxRating)
	return strings.Repeat("★", rating) + strings.Repeat("☆", maxRating-rating)
}

// SummaryText is the label of the trailing summary row.
func SummaryText(total int) string {
	if total == 1 {
		return "1 review"
	}
	return fmt.Sprintf("%d reviews", total)
}
