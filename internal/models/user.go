package models

import "github.com/google/uuid"

type User struct {
	ID       uuid.UUID `json:"id" bson:"id"`
	Username string    `json:"username" bson:"userName"`
	Password string    `json:"password,omitempty" bson:"password"`
}
