package models

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a persisted chat message between two friends.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID     string             `bson:"room_id" json:"room_id"`
	SenderID   string             `bson:"sender_id" json:"sender_id"`
	ReceiverID string             `bson:"receiver_id" json:"receiver_id"`
	Text       string             `bson:"text" json:"text"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// DirectRoomID returns the canonical room id for a user pair: the two
// uids in sorted order joined by an underscore, so both sides derive
// the same id.
func DirectRoomID(a, b string) string {
	uids := []string{a, b}
	sort.Strings(uids)
	return uids[0] + "_" + uids[1]
}
