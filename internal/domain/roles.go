package domain

const (
	RoleAdmin            = "admin"
	RoleUser             = "user"
	RoleProductManager   = "product_manager"
	RoleProductViewer    = "product_viewer"
	RoleCategoryManager  = "category_manager"
	RoleCategoryViewer   = "category_viewer"
	RoleChannelsManager  = "channels_manager"
	RoleChannelsViewer   = "channels_viewer"
	RoleInventoryManager = "inventory_manager"
	RoleInventoryViewer  = "inventory_viewer"
)

var AllRoles = []string{
	RoleAdmin,
	RoleUser,
	RoleProductManager,
	RoleProductViewer,
	RoleCategoryManager,
	RoleCategoryViewer,
	RoleChannelsManager,
	RoleChannelsViewer,
	RoleInventoryManager,
	RoleInventoryViewer,
}

var DefaultRoles = []string{RoleUser}
