package content_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulane/darasa/core/content"
	contentsvc "github.com/edulane/darasa/services/content"
)

func TestDirectory_List_strategyPriority(t *testing.T) {
	ctx := context.Background()
	store := contentsvc.NewDummyStore()
	dir := content.NewDirectory(store)

	store.Add(content.TypeMaterials,
		content.Item{ID: "m1", Title: "Linked", ClassroomID: "class-1"},
		content.Item{ID: "m2", Title: "Slugged", SubjectSlug: "physics"},
		content.Item{ID: "m3", Title: "Subject keyed", SubjectSlug: "physics 101"},
	)

	t.Run("classroom link wins", func(t *testing.T) {
		listing, err := dir.List(ctx, "class-1", "physics", "physics 101", content.TypeMaterials)
		require.NoError(t, err)
		assert.Equal(t, content.SourceClassroom, listing.Source)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "m1", listing.Items[0].ID)
	})

	t.Run("falls back to subject slug", func(t *testing.T) {
		listing, err := dir.List(ctx, "class-2", "physics", "physics 101", content.TypeMaterials)
		require.NoError(t, err)
		assert.Equal(t, content.SourceSubjectSlug, listing.Source)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "m2", listing.Items[0].ID)
	})

	t.Run("falls back to raw subject", func(t *testing.T) {
		listing, err := dir.List(ctx, "class-2", "chemistry", "physics 101", content.TypeMaterials)
		require.NoError(t, err)
		assert.Equal(t, content.SourceSubject, listing.Source)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "m3", listing.Items[0].ID)
	})

	t.Run("strategies are never mixed", func(t *testing.T) {
		store.Add(content.TypeMaterials, content.Item{ID: "m4", Title: "Also linked", ClassroomID: "class-1"})

		listing, err := dir.List(ctx, "class-1", "physics", "physics 101", content.TypeMaterials)
		require.NoError(t, err)
		assert.Equal(t, content.SourceClassroom, listing.Source)
		require.Len(t, listing.Items, 2)
		for _, it := range listing.Items {
			assert.Equal(t, "class-1", it.ClassroomID)
		}
	})
}

func TestDirectory_List_emptyResult(t *testing.T) {
	dir := content.NewDirectory(contentsvc.NewDummyStore())

	listing, err := dir.List(context.Background(), "class-1", "physics", "physics", content.TypeQuizzes)
	require.NoError(t, err)

	// items is an empty slice, never nil, so the JSON body carries []
	assert.NotNil(t, listing.Items)
	assert.Empty(t, listing.Items)
	assert.Equal(t, content.SourceSubject, listing.Source)
}

func TestDirectory_List_skipsBlankFallbackKeys(t *testing.T) {
	dir := content.NewDirectory(contentsvc.NewDummyStore())

	listing, err := dir.List(context.Background(), "class-1", "", "", content.TypeMaterials)
	require.NoError(t, err)
	assert.Equal(t, content.SourceClassroom, listing.Source)
	assert.Empty(t, listing.Items)
}

func TestDirectory_List_invalidType(t *testing.T) {
	dir := content.NewDirectory(contentsvc.NewDummyStore())

	_, err := dir.List(context.Background(), "class-1", "physics", "physics", "homeworks")
	assert.Equal(t, content.ErrInvalidType, err)
}

func TestDirectory_List_dedupes(t *testing.T) {
	store := contentsvc.NewDummyStore()
	dir := content.NewDirectory(store)

	store.Add(content.TypeQuizzes,
		content.Item{ID: "q1", Title: "Quiz 1", ClassroomID: "class-1"},
		content.Item{ID: "q1", Title: "Quiz 1 again", ClassroomID: "class-1"},
		content.Item{ID: "q2", Title: "Quiz 2", ClassroomID: "class-1"},
	)

	listing, err := dir.List(context.Background(), "class-1", "", "", content.TypeQuizzes)
	require.NoError(t, err)
	require.Len(t, listing.Items, 2)
	assert.Equal(t, "Quiz 1", listing.Items[0].Title) // first occurrence kept
	assert.Equal(t, "q2", listing.Items[1].ID)
}

func TestDirectory_List_normalizesAnnouncements(t *testing.T) {
	store := contentsvc.NewDummyStore()
	dir := content.NewDirectory(store)

	store.Add(content.TypeAnnouncements,
		content.Item{ID: "a1", Message: "Exam on Friday", ClassroomID: "class-1"},
		content.Item{ID: "a2", Title: "Has title", Content: "Has content", Message: "ignored", ClassroomID: "class-1"},
	)

	listing, err := dir.List(context.Background(), "class-1", "", "", content.TypeAnnouncements)
	require.NoError(t, err)
	require.Len(t, listing.Items, 2)

	// legacy message-only rows gain title and content
	assert.Equal(t, "Exam on Friday", listing.Items[0].Title)
	assert.Equal(t, "Exam on Friday", listing.Items[0].Content)

	// rows that already carry both are untouched
	assert.Equal(t, "Has title", listing.Items[1].Title)
	assert.Equal(t, "Has content", listing.Items[1].Content)
}
