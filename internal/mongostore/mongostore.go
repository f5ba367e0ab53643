// internal/mongostore/mongostore.go
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/taboo/internal/engine"
	"github.com/jason-s-yu/taboo/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	roomCollection = "room"
	wordCollection = "words"
	userCollection = "user"
)

// Store implements the room, word and user stores on MongoDB.
type Store struct {
	client *mongo.Client
	rooms  *mongo.Collection
	words  *mongo.Collection
	users  *mongo.Collection
}

// Connect dials uri, pings the primary and creates the unique indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		rooms:  db.Collection(roomCollection),
		words:  db.Collection(wordCollection),
		users:  db.Collection(userCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}, Options: options.Index().SetUnique(true)}
	}
	if _, err := s.rooms.Indexes().CreateOne(ctx, unique("roomId")); err != nil {
		return fmt.Errorf("create room index: %w", err)
	}
	if _, err := s.words.Indexes().CreateOne(ctx, unique("id")); err != nil {
		return fmt.Errorf("create word index: %w", err)
	}
	if _, err := s.users.Indexes().CreateOne(ctx, unique("userName")); err != nil {
		return fmt.Errorf("create user index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, engine.ErrNotFound)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", what, engine.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// UpsertRoom inserts rec with $setOnInsert so an existing room is left untouched.
func (s *Store) UpsertRoom(ctx context.Context, rec models.RoomRecord) error {
	_, err := s.rooms.UpdateOne(ctx,
		bson.M{"roomId": rec.RoomID},
		bson.M{"$setOnInsert": bson.M{"roomId": rec.RoomID, "name": rec.Name, "owner": rec.Owner}},
		options.Update().SetUpsert(true),
	)
	return translate(err, fmt.Sprintf("upsert room %q", rec.RoomID))
}

func (s *Store) FindRoomByID(ctx context.Context, roomID string) (*models.RoomRecord, error) {
	var rec models.RoomRecord
	if err := s.rooms.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&rec); err != nil {
		return nil, translate(err, fmt.Sprintf("room %q", roomID))
	}
	return &rec, nil
}

func (s *Store) SaveTeams(ctx context.Context, roomID string, teamOne, teamTwo []string) error {
	res, err := s.rooms.UpdateOne(ctx,
		bson.M{"roomId": roomID},
		bson.M{"$set": bson.M{"teamOne": teamOne, "teamTwo": teamTwo}},
	)
	if err != nil {
		return translate(err, fmt.Sprintf("save teams of room %q", roomID))
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments, fmt.Sprintf("save teams of room %q", roomID))
	}
	return nil
}

func (s *Store) FindWordByID(ctx context.Context, id int) (*models.WordRecord, error) {
	var w models.WordRecord
	if err := s.words.FindOne(ctx, bson.M{"id": id}).Decode(&w); err != nil {
		return nil, translate(err, fmt.Sprintf("word %d", id))
	}
	return &w, nil
}

func (s *Store) CountWords(ctx context.Context) (int, error) {
	n, err := s.words.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, translate(err, "count words")
	}
	return int(n), nil
}

// PutWords inserts or replaces deck entries by id.
func (s *Store) PutWords(ctx context.Context, words ...models.WordRecord) error {
	if len(words) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(words))
	for _, w := range words {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": w.ID}).
			SetReplacement(w).
			SetUpsert(true))
	}
	_, err := s.words.BulkWrite(ctx, writes)
	return translate(err, "put words")
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.users.InsertOne(ctx, user)
	return translate(err, fmt.Sprintf("insert user %q", user.Username))
}

func (s *Store) FindUserByName(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, bson.M{"userName": username}).Decode(&u); err != nil {
		return nil, translate(err, fmt.Sprintf("user %q", username))
	}
	return &u, nil
}
