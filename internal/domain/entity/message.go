package entity

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeOffer MessageType = "offer"
)

func (t MessageType) Valid() bool {
	return t == MessageTypeText || t == MessageTypeImage || t == MessageTypeOffer
}

type Message struct {
	ID        string      `json:"id" firestore:"-"`
	ChatID    string      `json:"chat_id" firestore:"-"`
	SenderID  string      `json:"sender_id" firestore:"senderId" validate:"required"`
	Content   string      `json:"content" firestore:"content" validate:"required"`
	Type      MessageType `json:"type" firestore:"type" validate:"required,oneof=text image offer"`
	CreatedAt time.Time   `json:"created_at" firestore:"createdAt" validate:"required"`
}

// ParseOfferAmount accepts a positive, finite decimal amount.
func ParseOfferAmount(raw string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("offer amount %q is not a number", raw)
	}
	if err := CheckOfferAmount(amount); err != nil {
		return 0, err
	}
	return amount, nil
}

func CheckOfferAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("offer amount must be a finite number")
	}
	if amount <= 0 {
		return fmt.Errorf("offer amount must be greater than zero")
	}
	return nil
}

// FormatOfferAmount renders the shortest decimal form, e.g. 80 and 150.5.
func FormatOfferAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// OfferAmount parses the content of an offer message.
func (m *Message) OfferAmount() (float64, error) {
	if m.Type != MessageTypeOffer {
		return 0, fmt.Errorf("message %s is not an offer", m.ID)
	}
	return ParseOfferAmount(m.Content)
}
