package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/store"
)

func TestChapterService_CreateAppendsAndSanitises(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "a@example.com", "Ava")
	n := env.novel(t, author, "Serial", "fantasy")

	first, err := env.chapters.Create(env.ctx, author, n.ID, CreateChapterRequest{
		Title:   "Arrival",
		Content: `<p onclick="x()">The ship <em>landed</em>.</p><script>alert(1)</script>`,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "<p>The ship <em>landed</em>.</p>", first.Content)
	assert.Equal(t, 3, first.WordCount)

	second, err := env.chapters.Create(env.ctx, author, n.ID, CreateChapterRequest{Title: "Departure", Content: "<p>Gone.</p>"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)

	got, err := env.novels.Get(env.ctx, n.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ChapterCount)
	assert.True(t, got.UpdatedAt.After(n.UpdatedAt), "chapter writes touch the novel")

	list, err := env.chapters.List(env.ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Empty(t, list[0].Content, "listings omit content")
}

func TestChapterService_DuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "a@example.com", "Ava")
	n := env.novel(t, author, "Serial", "fantasy")

	_, err := env.chapters.Create(env.ctx, author, n.ID, CreateChapterRequest{Number: 3, Title: "Three", Content: "x"})
	require.NoError(t, err)
	_, err = env.chapters.Create(env.ctx, author, n.ID, CreateChapterRequest{Number: 3, Title: "Again", Content: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestChapterService_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	author := env.register(t, "a@example.com", "Ava")
	other := env.register(t, "b@example.com", "Ben")
	n := env.novel(t, author, "Serial", "fantasy")
	_, err := env.chapters.Create(env.ctx, author, n.ID, CreateChapterRequest{Title: "One", Content: "<p>a b</p>"})
	require.NoError(t, err)

	content := "<p>a b c d</p>"
	_, err = env.chapters.Update(env.ctx, other, n.ID, 1, UpdateChapterRequest{Content: &content})
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	updated, err := env.chapters.Update(env.ctx, author, n.ID, 1, UpdateChapterRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.WordCount)

	got, err := env.chapters.Get(env.ctx, n.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, content, got.Content)

	require.NoError(t, env.chapters.Delete(env.ctx, author, n.ID, 1))
	_, err = env.chapters.Get(env.ctx, n.ID, 1)
	assert.True(t, store.IsNotFound(err))

	after, err := env.novels.Get(env.ctx, n.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, after.ChapterCount)
}
