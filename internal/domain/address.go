package domain

import "github.com/google/uuid"

type Address struct {
	ID           uuid.UUID  `json:"id"`
	CEP          string     `json:"cep"`
	Address      string     `json:"address"`
	Number       string     `json:"number"`
	Complement   *string    `json:"complement,omitempty"`
	Neighborhood string     `json:"neighborhood"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	UserID       *uuid.UUID `json:"userId,omitempty"`
	LocationID   *uuid.UUID `json:"locationId,omitempty"`
}
