package database

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var DB *mongo.Database

func ConnectDB() *mongo.Database {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "sway"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}

	DB = client.Database(dbName)

	if err := ensureIndexes(ctx, DB); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	return DB
}

// ensureIndexes backs the conditional code writes: a duplicate becomes a
// write failure instead of a silent second holder. referralCode and
// referralCodeUsed are optional fields, so their indexes are partial.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	stringOnly := func(field string) *options.IndexOptions {
		return options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{field: bson.M{"$type": "string"}})
	}

	_, err := db.Collection("teams").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "joinCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referralCode", Value: 1}}, Options: stringOnly("referralCode")},
		{Keys: bson.D{{Key: "referralCodeUsed", Value: 1}}, Options: stringOnly("referralCodeUsed")},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("referral-credits").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "settledAt", Value: 1}, {Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
