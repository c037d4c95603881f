package domain

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Parent      *Category  `json:"parent,omitempty"`
	Children    []Category `json:"children,omitempty"`
	Products    []Product  `json:"products,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CategoryPatch holds the optional fields of a partial category update. A non-nil
// ParentID pointing at uuid.Nil detaches the category from its parent.
type CategoryPatch struct {
	Name        *string
	Description *string
	ParentID    *uuid.UUID
}

// BuildCategoryTree nests a flat list of categories under their parents and returns the
// roots. Categories whose parent is not in the list are treated as roots.
func BuildCategoryTree(flat []Category) []Category {
	byParent := make(map[uuid.UUID][]Category)
	known := make(map[uuid.UUID]bool, len(flat))
	for _, c := range flat {
		known[c.ID] = true
	}

	var roots []Category
	for _, c := range flat {
		c.Parent = nil
		c.Children = nil
		if c.ParentID == nil || !known[*c.ParentID] {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	var attach func(c Category) Category
	attach = func(c Category) Category {
		for _, child := range byParent[c.ID] {
			c.Children = append(c.Children, attach(child))
		}
		return c
	}

	tree := make([]Category, 0, len(roots))
	for _, r := range roots {
		tree = append(tree, attach(r))
	}

	return tree
}
