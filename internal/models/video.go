package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is a published video document in the MongoDB videos collection.
// VideoFile and Thumbnail are public URLs on the media store; Duration is
// in seconds and zero when the media store reports none.
type Video struct {
	ID          primitive.ObjectID `json:"id"                 bson:"_id,omitempty"`
	Owner       string             `json:"owner"              bson:"owner"`
	Title       string             `json:"title"              bson:"title"`
	Description string             `json:"description"        bson:"description"`
	VideoFile   string             `json:"videoFile"          bson:"videoFile"`
	Thumbnail   string             `json:"thumbnail"          bson:"thumbnail"`
	Duration    float64            `json:"duration,omitempty" bson:"duration,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"          bson:"createdAt"`
}
