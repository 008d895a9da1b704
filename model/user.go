package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"user_id,omitempty"`
	IdentityID string             `bson:"identity_id" json:"identity_id,omitempty"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	FirstName  string             `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName   string             `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Username   string             `bson:"username,omitempty" json:"username,omitempty"`
	Photo      string             `bson:"photo,omitempty" json:"photo,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// DisplayName is what notifications address the user by.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name = name + " " + u.LastName
		} else {
			name = u.LastName
		}
	}
	if name == "" {
		name = u.Username
	}
	return name
}
