// Package mongo implements the repository interfaces on MongoDB.
//
// The collection names and document fields are the ones the café data has
// always used (user, shop, review), so an existing database can be pointed
// at directly. Documents are decoded into package-private structs carrying
// bson tags and primitive.ObjectID, then converted to the model types; no
// driver type leaks out of this package.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UserCollection   = "user"
	CafeCollection   = "shop"
	ReviewCollection = "review"
)

const connectTimeout = 10 * time.Second

// DB is a connected MongoDB database.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials the server at uri, verifies it with a ping and makes sure
// the indexes exist.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := &DB{client: client, db: client.Database(database)}
	if err := db.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	return db, nil
}

// ensureIndexes creates the indexes the repositories rely on. The unique
// index on user.username is what turns a duplicate registration into a
// Conflict instead of a second account.
func (d *DB) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{UserCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{CafeCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "cafe_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{CafeCollection, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}}},
		{ReviewCollection, mongo.IndexModel{Keys: bson.D{{Key: "cafe", Value: 1}}}},
		{ReviewCollection, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}}},
	}

	for _, idx := range indexes {
		if _, err := d.db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("mongo: creating index on %s: %w", idx.collection, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Ping checks the server is still reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Drop deletes the whole database. Only tests use it.
func (d *DB) Drop(ctx context.Context) error {
	return d.db.Drop(ctx)
}

func (d *DB) Users() *UserStore {
	return &UserStore{coll: d.db.Collection(UserCollection)}
}

func (d *DB) Cafes() *CafeStore {
	return &CafeStore{coll: d.db.Collection(CafeCollection)}
}

func (d *DB) Reviews() *ReviewStore {
	return &ReviewStore{coll: d.db.Collection(ReviewCollection)}
}

// objectID converts a model ID into an ObjectID. An empty ID gets a fresh
// one. ok is false for strings that can't be an ObjectID, which callers
// treat as "no such document".
func objectID(id string) (oid primitive.ObjectID, ok bool) {
	if id == "" {
		return primitive.NewObjectID(), true
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
