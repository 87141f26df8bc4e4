package textsplit

import (
	"testing"
	"unicode/utf8"

	"github.com/micocomia/5902Group5/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveCharacter_MergesWords(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(10), WithOverlap(0))
	assert.Equal(t, []string{"one two", "three four", "five"}, s.SplitText("one two three four five"))
}

func TestRecursiveCharacter_Overlap(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(10), WithOverlap(4))
	assert.Equal(t, []string{"one two", "two three", "four five"}, s.SplitText("one two three four five"))
}

func TestRecursiveCharacter_KeepsParagraphsTogether(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(50))
	assert.Equal(t, []string{"para one.\n\npara two."}, s.SplitText("para one.\n\npara two."))
}

func TestRecursiveCharacter_FallsBackToCharacters(t *testing.T) {
	s := NewRecursiveCharacter(WithChunkSize(4))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, s.SplitText("abcdefghij"))
}

func TestRecursiveCharacter_ChunksRespectSize(t *testing.T) {
	text := "Gradient descent updates parameters.\n\nThe learning rate controls the step size. " +
		"Too large and it diverges.\nToo small and it crawls.\n\nMomentum helps."
	s := NewRecursiveCharacter(WithChunkSize(30), WithOverlap(5))

	chunks := s.SplitText(text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 30, c)
		assert.NotEmpty(t, c)
	}
}

func TestFixed_SlidingWindow(t *testing.T) {
	s := NewFixed(WithChunkSize(4), WithOverlap(1))
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, s.SplitText("abcdefghij"))
	assert.Nil(t, s.SplitText(""))
}

func TestFixed_CountsRunes(t *testing.T) {
	s := NewFixed(WithChunkSize(2))
	assert.Equal(t, []string{"éé", "éé", "é"}, s.SplitText("ééééé"))
}

func TestOverlapIsClampedBelowChunkSize(t *testing.T) {
	s := NewFixed(WithChunkSize(8), WithOverlap(8))
	assert.Equal(t, 2, s.overlap)
}

func TestSplitDocuments_InheritsMetadata(t *testing.T) {
	parent := models.NewDocument("alpha beta gamma", models.Metadata{
		models.MetaSourceType: models.StringValue(string(models.SourceTypeVerifiedContent)),
		models.MetaFileName:   models.StringValue("notes.md"),
	})
	empty := models.NewDocument("   ", models.Metadata{})

	chunks := NewRecursiveCharacter(WithChunkSize(6)).SplitDocuments([]models.Document{parent, empty})

	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, models.SourceTypeVerifiedContent, c.SourceType())
		idx, ok := c.Metadata[models.MetaChunkIndex].Int()
		assert.True(t, ok)
		assert.EqualValues(t, i, idx)
	}
	assert.NotContains(t, parent.Metadata, models.MetaChunkIndex)
}

func TestNew(t *testing.T) {
	s, err := New(TypeRecursiveCharacter, WithChunkSize(100))
	require.NoError(t, err)
	assert.IsType(t, &RecursiveCharacter{}, s)

	s, err = New(TypeFixed)
	require.NoError(t, err)
	assert.IsType(t, &Fixed{}, s)

	_, err = New("semantic")
	assert.Error(t, err)
}
