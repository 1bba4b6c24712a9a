package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	DisplayName string    `json:"display_name"`
	Content     string    `json:"content"`
	Rating      int       `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}
