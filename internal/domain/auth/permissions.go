package auth

const (
	RoleHR          = "HR"
	RoleManager     = "Manager"
	RoleEmployee    = "Employee"
	RoleSystemAdmin = "SystemAdmin"
)

const UserStatusActive = "active"

const (
	PermMenusRead   = "menus.read"
	PermRightsRead  = "rights.read"
	PermRightsWrite = "rights.write"
	PermAuditRead   = "audit.read"
	PermSystemAdmin = "admin.system"
)

var DefaultPermissions = []string{
	PermMenusRead,
	PermRightsRead,
	PermRightsWrite,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermMenusRead,
	},
	RoleManager: {
		PermMenusRead,
		PermRightsRead,
	},
	RoleHR: {
		PermMenusRead,
		PermRightsRead,
		PermRightsWrite,
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermMenusRead,
		PermRightsRead,
		PermRightsWrite,
		PermAuditRead,
		PermSystemAdmin,
	},
}

// RoleDescriptions is shown next to each role in the rights screen.
var RoleDescriptions = map[string]string{
	RoleEmployee:    "Self service access",
	RoleManager:     "Team leads with read access to role rights",
	RoleHR:          "HR administrators who maintain role rights",
	RoleSystemAdmin: "Platform operators",
}
