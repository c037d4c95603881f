package domain

import "github.com/google/uuid"

type Channel struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

type ChannelPatch struct {
	Name        *string
	Description *string
}
