package models

import (
	"time"

	"github.com/google/uuid"
)

// SupportMessage ids are ULIDs so the append-only log sorts by id.
type SupportMessage struct {
	ID              string    `json:"id"`
	AccountID       uuid.UUID `json:"account_id"`
	IsOperatorReply bool      `json:"is_operator_reply"`
	Content         string    `json:"content"`
	ImageURI        *string   `json:"image_uri,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// SupportThread is the operator inbox row: one per account that has
// written in, carrying the latest message.
type SupportThread struct {
	AccountID     uuid.UUID `json:"account_id"`
	Nickname      string    `json:"nickname"`
	LastMessage   string    `json:"last_message"`
	LastTimestamp time.Time `json:"last_timestamp"`
}
