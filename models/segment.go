package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Segment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID    primitive.ObjectID `bson:"teamId" json:"teamId"`
	Name      string             `bson:"name" json:"name"`
	SongTitle string             `bson:"songTitle,omitempty" json:"songTitle,omitempty"`
	// Formations holds the client's layout payload verbatim; the server
	// never interprets it.
	Formations []map[string]interface{} `bson:"formations,omitempty" json:"formations,omitempty"`
	CreatedBy  string                   `bson:"createdBy" json:"createdBy"`
	CreatedAt  time.Time                `bson:"createdAt" json:"createdAt"`
}
