package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName  string              `bson:"fullname" json:"fullname"`
	Email     string              `bson:"email" json:"email"`
	Password  string              `bson:"password,omitempty" json:"-"`
	Team      *primitive.ObjectID `bson:"team,omitempty" json:"team,omitempty"`
	Role      string              `bson:"role,omitempty" json:"role,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
