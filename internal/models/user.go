package models

import (
	"time"
)

// User represents a member profile. The document id is the stable uid
// issued at account creation, so the relationship arrays reference
// other users by plain string uid.
type User struct {
	UID              string    `bson:"_id" json:"uid"`
	Nickname         string    `bson:"nickname" json:"nickname"`
	Bio              string    `bson:"bio,omitempty" json:"bio,omitempty"`
	Region           string    `bson:"region" json:"region"`
	Gender           string    `bson:"gender" json:"gender"`
	BirthYear        int       `bson:"birth_year" json:"birthYear"`
	MinAgeGroup      string    `bson:"min_age_group" json:"minAgeGroup"`
	MaxAgeGroup      string    `bson:"max_age_group" json:"maxAgeGroup"`
	ProfileImageRef  string    `bson:"profile_image_ref,omitempty" json:"profileImgUrl,omitempty"`
	FriendIDs        []string  `bson:"friend_ids" json:"friendIds"`
	SentRequests     []string  `bson:"sent_requests" json:"sentRequests"`
	ReceivedRequests []string  `bson:"received_requests" json:"receivedRequests"`
	Role             string    `bson:"role" json:"role"`
	IsOnline         bool      `bson:"is_online" json:"isOnline"`
	LastLoginAt      time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
	LastActiveAt     time.Time `bson:"last_active_at,omitempty" json:"lastActiveAt,omitempty"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the profile shape exposed in listings and friend views.
// ProfileImageURL carries a resolved, time-limited read URL rather than
// the stored blob reference.
type PublicUser struct {
	UID             string `json:"uid"`
	Nickname        string `json:"nickname"`
	Bio             string `json:"bio,omitempty"`
	Region          string `json:"region"`
	Gender          string `json:"gender"`
	BirthYear       int    `json:"birthYear"`
	ProfileImageURL string `json:"profileImgUrl"`
}

// Account holds login credentials, kept separate from the profile so a
// half-finished signup (account created, profile not yet finalized)
// never shows up in the directory.
type Account struct {
	UID            string    `bson:"_id" json:"uid"`
	Email          string    `bson:"email" json:"email"`
	HashedPassword string    `bson:"hashed_password" json:"-"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
}

// HasFriend reports whether uid is in the user's friend set.
func (u *User) HasFriend(uid string) bool {
	return containsUID(u.FriendIDs, uid)
}

// HasSentRequestTo reports whether the user has an outstanding request to uid.
func (u *User) HasSentRequestTo(uid string) bool {
	return containsUID(u.SentRequests, uid)
}

// HasReceivedRequestFrom reports whether uid has an outstanding request to the user.
func (u *User) HasReceivedRequestFrom(uid string) bool {
	return containsUID(u.ReceivedRequests, uid)
}

func containsUID(ids []string, uid string) bool {
	for _, id := range ids {
		if id == uid {
			return true
		}
	}
	return false
}
