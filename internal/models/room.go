// internal/models/room.go
package models

// RoomRecord is the persisted metadata of a room. Teams are stored by name once a
// session has been started.
type RoomRecord struct {
	RoomID  string   `json:"room_id" bson:"roomId"`
	Name    string   `json:"name" bson:"name"`
	Owner   string   `json:"owner" bson:"owner"`
	TeamOne []string `json:"team_one,omitempty" bson:"teamOne,omitempty"`
	TeamTwo []string `json:"team_two,omitempty" bson:"teamTwo,omitempty"`
}
