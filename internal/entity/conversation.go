package entity

import "time"

// Conversation threads the messages between one buyer and one seller about
// one listing. At most one active conversation exists per
// (ListingID, BuyerID, SellerID) triple, enforced by a store-level unique
// constraint rather than by id arithmetic.
type Conversation struct {
	ID            string
	ListingID     string
	BuyerID       string
	SellerID      string
	LastMessageAt time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// Participant reports whether userID is the buyer or the seller.
func (c *Conversation) Participant(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if userID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

type MessageStatus string

const (
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageRead      MessageStatus = "read"
)

// MinMessageLength is the lower bound on message content, in runes.
const MinMessageLength = 5

// Message belongs to a conversation. ReadAt is set exactly once, by the
// recipient, and never cleared: sent → read is monotonic.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	Status         MessageStatus
	CreatedAt      time.Time
	ReadAt         *time.Time
}
