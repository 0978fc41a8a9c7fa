package models

// RelationshipState describes the relationship between an ordered pair
// of users (A, B) from A's point of view.
type RelationshipState string

const (
	RelationshipNone     RelationshipState = "none"
	RelationshipSent     RelationshipState = "sent"
	RelationshipReceived RelationshipState = "received"
	RelationshipFriends  RelationshipState = "friends"
)

// RelationshipOf derives the state toward other from the user's own
// relationship arrays.
func (u *User) RelationshipOf(other string) RelationshipState {
	switch {
	case u.HasFriend(other):
		return RelationshipFriends
	case u.HasSentRequestTo(other):
		return RelationshipSent
	case u.HasReceivedRequestFrom(other):
		return RelationshipReceived
	default:
		return RelationshipNone
	}
}
