package rbac

const (
	RoleSuperAdmin  = "super_admin"
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
	RoleTrainer     = "trainer"
	RoleParticipant = "participant"
)

// ValidRole reports whether role has an entry in RolePermissions.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// CanGrant reports whether actor may move an account from one role to another.
// Granting or revoking super_admin takes the superadmin:grant permission,
// which only super_admin holds.
func CanGrant(actor, from, to string) bool {
	if from != RoleSuperAdmin && to != RoleSuperAdmin {
		return true
	}
	return Can(actor, "superadmin:grant")
}

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	RoleParticipant: {
		"session:view",
		"test:view",
		"test:submit",
		"result:view-own",
		"feedback:submit",
		"user:change_password",
	},
	RoleTrainer: {
		"session:view",
		"test:view",
		"result:view-all",
		"checklist:submit",
		"attendance:record",
		"user:change_password",
	},
	RoleCoordinator: {
		"session:*",
		"program:view",
		"company:view",
		"test:view",
		"result:view-all",
		"attendance:record",
		"users:list",
		"user:change_password",
	},
	RoleAdmin: {
		"program:*",
		"company:*",
		"session:*",
		"test:*",
		"template:*",
		"result:view-all",
		"users:*",
		"audit:view",
		"data:*",
		"user:change_password",
	},
	RoleSuperAdmin: {
		"*", // everything, including the superadmin:* console
	},
}
