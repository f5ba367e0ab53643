// internal/models/word.go
package models

// WordRecord is a single card of the deck: the word to guess and the terms the
// speaker may not say.
type WordRecord struct {
	ID        int      `json:"id" bson:"id"`
	Guess     string   `json:"guess" bson:"guess"`
	Forbidden []string `json:"forbidden" bson:"forbidden"`
}

// WordReveal is the view of a WordRecord sent to one participant.
type WordReveal struct {
	Word      string   `json:"word"`
	Forbidden []string `json:"forbidden"`
}
