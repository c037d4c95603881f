package request

import (
	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
)

type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

func (q PageQuery) ToDomain() domain.Page {
	return domain.Page{Page: q.Page, Limit: q.Limit}.Normalize()
}

// optionalUUID parses s, returning nil for an empty string. Callers validate s first.
func optionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}

	return &id
}

func mustUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}
