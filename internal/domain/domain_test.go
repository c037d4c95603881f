package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"defaults", Page{}, Page{Page: 1, Limit: 10}},
		{"negative", Page{Page: -3, Limit: -1}, Page{Page: 1, Limit: 10}},
		{"capped", Page{Page: 4, Limit: 500}, Page{Page: 4, Limit: 100}},
		{"kept", Page{Page: 2, Limit: 25}, Page{Page: 2, Limit: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestPage_OffsetAndTotalPages(t *testing.T) {
	p := Page{Page: 3, Limit: 20}

	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(20))
	assert.Equal(t, 2, p.TotalPages(21))
}

func TestBuildCategoryTree(t *testing.T) {
	root := Category{ID: uuid.New(), Name: "Medicamentos"}
	child := Category{ID: uuid.New(), Name: "Analgésicos", ParentID: &root.ID}
	leaf := Category{ID: uuid.New(), Name: "Infantil", ParentID: &child.ID}
	missing := uuid.New()
	orphan := Category{ID: uuid.New(), Name: "Orfã", ParentID: &missing}

	tree := BuildCategoryTree([]Category{leaf, orphan, child, root})
	require.Len(t, tree, 2)

	assert.Equal(t, orphan.ID, tree[0].ID)
	assert.Empty(t, tree[0].Children)

	assert.Equal(t, root.ID, tree[1].ID)
	require.Len(t, tree[1].Children, 1)
	require.Len(t, tree[1].Children[0].Children, 1)
	assert.Equal(t, leaf.ID, tree[1].Children[0].Children[0].ID)
}

func TestChangeType_Valid(t *testing.T) {
	assert.True(t, ChangeStockIn.Valid())
	assert.True(t, ChangeRelease.Valid())
	assert.False(t, ChangeType("stock_in").Valid())
}

func TestActor_CanActOn(t *testing.T) {
	self := uuid.New()

	assert.True(t, Actor{ID: self, Roles: []string{RoleUser}}.CanActOn(self))
	assert.False(t, Actor{ID: self, Roles: []string{RoleUser}}.CanActOn(uuid.New()))
	assert.True(t, Actor{ID: self, Roles: []string{RoleAdmin}}.CanActOn(uuid.New()))
}

func TestInventoryKey_LockName(t *testing.T) {
	key := InventoryKey{ProductID: uuid.New(), LocationID: uuid.New(), ChannelID: uuid.New()}

	assert.Equal(t, "inventory:"+key.ProductID.String()+":"+key.LocationID.String()+":"+key.ChannelID.String(),
		key.LockName())
}
