package models

// Role is what a participant does during the current turn.
type Role string

const (
	// RoleSpeaker is the participant whose turn it is. Sees the true word.
	RoleSpeaker Role = "Speaker"
	// RoleGuesser is a teammate of the speaker. Sees a masked word.
	RoleGuesser Role = "Guesser"
	// RoleChecker is on the opposing team and polices the forbidden words.
	RoleChecker Role = "Checker"
)
