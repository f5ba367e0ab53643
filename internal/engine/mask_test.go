package engine

import (
	"testing"

	"github.com/jason-s-yu/taboo/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMaskWord(t *testing.T) {
	w := models.WordRecord{ID: 4, Guess: "APPLE", Forbidden: []string{"fruit", "tree", "pie"}}

	guesser := MaskWord(models.RoleGuesser, w)
	assert.Equal(t, "FFFFF", guesser.Word)
	assert.Equal(t, []string{"FFFFF", "FFFF", "FFF"}, guesser.Forbidden)

	for _, role := range []models.Role{models.RoleSpeaker, models.RoleChecker} {
		got := MaskWord(role, w)
		assert.Equal(t, "APPLE", got.Word, role)
		assert.Equal(t, w.Forbidden, got.Forbidden, role)
	}
}

func TestMaskWordCountsLetters(t *testing.T) {
	got := MaskWord(models.RoleGuesser, models.WordRecord{Guess: "Café", Forbidden: []string{}})
	assert.Equal(t, "FFFF", got.Word)
	assert.Empty(t, got.Forbidden)
}

func TestMaskWordDoesNotShareForbidden(t *testing.T) {
	w := models.WordRecord{Guess: "moon", Forbidden: []string{"night"}}
	got := MaskWord(models.RoleSpeaker, w)
	got.Forbidden[0] = "changed"
	assert.Equal(t, "night", w.Forbidden[0])
}
