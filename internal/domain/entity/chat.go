package entity

import "time"

type Chat struct {
	ID            string               `json:"id" firestore:"-"`
	BuyerID       string               `json:"buyer_id" firestore:"buyerId" validate:"required"`
	SellerID      string               `json:"seller_id" firestore:"sellerId" validate:"required"`
	ProductID     string               `json:"product_id" firestore:"productId" validate:"required"`
	CreatedAt     time.Time            `json:"created_at" firestore:"createdAt" validate:"required"`
	LastMessageAt *time.Time           `json:"last_message_at,omitempty" firestore:"lastMessageAt,omitempty"`
	ReadBy        map[string]time.Time `json:"read_by,omitempty" firestore:"readBy,omitempty"`
}

func (c *Chat) HasParticipant(userID string) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Counterpart returns the other participant of the chat.
func (c *Chat) Counterpart(userID string) string {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

// UnreadCount counts messages from the other participant newer than the
// user's last read mark.
func (c *Chat) UnreadCount(userID string, messages []*Message) int {
	lastRead, seen := c.ReadBy[userID]
	count := 0
	for _, m := range messages {
		if m.SenderID == userID {
			continue
		}
		if !seen || m.CreatedAt.After(lastRead) {
			count++
		}
	}
	return count
}
