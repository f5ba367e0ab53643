package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/jason-s-yu/taboo/internal/models"
)

const maskRune = "F"

// MaskWord renders w for a participant playing role. Guessers receive a mask of
// the same letter count for the word and every forbidden term; speakers and
// checkers receive the record untouched.
func MaskWord(role models.Role, w models.WordRecord) models.WordReveal {
	if role != models.RoleGuesser {
		forbidden := make([]string, len(w.Forbidden))
		copy(forbidden, w.Forbidden)
		return models.WordReveal{Word: w.Guess, Forbidden: forbidden}
	}
	forbidden := make([]string, 0, len(w.Forbidden))
	for _, f := range w.Forbidden {
		forbidden = append(forbidden, mask(f))
	}
	return models.WordReveal{Word: mask(w.Guess), Forbidden: forbidden}
}

func mask(s string) string {
	return strings.Repeat(maskRune, utf8.RuneCountInString(s))
}
