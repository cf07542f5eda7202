package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlist/internal/app"
	"reviewlist/internal/domain"
	"reviewlist/internal/typeset"
)

func TestItemBuilder_Build(t *testing.T) {
	fonts, err := typeset.NewFonts(typeset.DefaultSizes())
	require.NoError(t, err)
	b := app.NewItemBuilder(fonts, 3)

	avatar := "  https://img.example.com/a.jpg "
	d := b.Build(domain.Review{
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Rating:    9,
		Text:      "  Lovely stay.\n",
		Created:   "13 February",
		AvatarURL: &avatar,
		PhotoURLs: []string{"", "https://img.example.com/1.jpg", "  "},
	})

	assert.Equal(t, "Ada Lovelace", d.Name.Text)
	assert.Equal(t, 5, d.Rating)
	assert.Equal(t, "★★★★★", d.Stars.Text)
	assert.Equal(t, "Lovely stay.", d.Text.Text)
	assert.Same(t, fonts.Body, d.Text.Font)
	assert.Equal(t, typeset.Gray, d.Created.Color)
	assert.Equal(t, 3, d.MaxLines)
	assert.Equal(t, "https://img.example.com/a.jpg", d.AvatarRef)
	assert.Equal(t, []string{"https://img.example.com/1.jpg"}, d.PhotoRefs)

	other := b.Build(domain.Review{FirstName: "Ada"})
	assert.NotEqual(t, d.ID, other.ID)
	assert.Equal(t, "Ada", other.Name.Text)
	assert.Empty(t, other.AvatarRef)
	assert.Nil(t, other.PhotoRefs)
	assert.True(t, other.Text.IsEmpty())
}

func TestRatingStars(t *testing.T) {
	assert.Equal(t, "☆☆☆☆☆", app.RatingStars(-2))
	assert.Equal(t, "★★★☆☆", app.RatingStars(3))
	assert.Equal(t, "★★★★★", app.RatingStars(7))
}

func TestSummaryText(t *testing.T) {
	assert.Equal(t, "0 reviews", app.SummaryText(0))
	assert.Equal(t, "1 review", app.SummaryText(1))
	assert.Equal(t, "45 reviews", app.SummaryText(45))
}
