package store

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	assert.ErrorIs(t, ErrNovelNotFound, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("get: %w", ErrChapterNotFound), ErrNotFound)
	assert.NotErrorIs(t, ErrAlreadyExists, ErrNotFound)
	assert.True(t, IsNotFound(ErrUserNotFound))
	assert.False(t, IsNotFound(ErrInvalidInput))
}

func TestError_Message(t *testing.T) {
	err := ErrInvalidInput.WithMessage("bad cursor").WithCause(fmt.Errorf("illegal base64"))
	assert.Equal(t, "bad cursor: illegal base64", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode())
}

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 50},
		{-3, 50},
		{20, 20},
		{200, 200},
		{5000, 200},
	}
	for _, tt := range tests {
		p := PaginationParams{Limit: tt.in}
		p.Validate()
		assert.Equal(t, tt.want, p.Limit, "limit %d", tt.in)
	}
	assert.Equal(t, 50, DefaultPaginationParams().Limit)
}

func TestCursorRoundTrip(t *testing.T) {
	c := EncodeCursor("2026-01-01T00:00:00.000000000Z", "novel-1")
	parts, err := DecodeCursor(c, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-01T00:00:00.000000000Z", "novel-1"}, parts)

	parts, err = DecodeCursor("", 2)
	require.NoError(t, err)
	assert.Nil(t, parts)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := DecodeCursor("!!!", 2)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DecodeCursor(EncodeCursor("only-one"), 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
