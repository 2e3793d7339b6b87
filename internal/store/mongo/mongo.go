// Package mongo implements the durable conversation log on MongoDB, one
// collection per user under the chat_records database.
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/foodiary/foodiary-chat/internal/model"
	"github.com/foodiary/foodiary-chat/internal/store"
)

const databaseName = "chat_records"

// Open connects a Mongo client and verifies connectivity.
func Open(ctx context.Context, uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// NewWithClient constructs a Mongo-backed store over an existing client.
// The client is the shared, process-wide handle owned by the caller.
func NewWithClient(client *mongo.Client) store.Store {
	return &mongoStore{client: client}
}

type mongoStore struct {
	client *mongo.Client
}

func (s *mongoStore) collection(userID string) *mongo.Collection {
	return s.client.Database(databaseName).Collection(userID)
}

func (s *mongoStore) Append(ctx context.Context, rec model.ConversationRecord) error {
	_, err := s.collection(rec.UserID).InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

func (s *mongoStore) Query(ctx context.Context, userID string, before *float64, limit int) ([]model.ConversationRecord, error) {
	filter := bson.M{}
	if before != nil {
		filter["timestamp"] = bson.M{"$lt": *before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.collection(userID).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	// Decoding into the model type strips the storage-internal _id.
	out := make([]model.ConversationRecord, 0, limit)
	for cur.Next(ctx) {
		var rec model.ConversationRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, cur.Err()
}

func (s *mongoStore) HealthPing(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *mongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
