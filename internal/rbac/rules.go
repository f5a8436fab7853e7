package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"assessment:view",
		"submission:create",
		"submission:view-own",
		"artifact:upload",
	},
	"tutor": {
		"assessment:create",
		"assessment:view",
		"assessment:view-authoring",
		"assessment:publish",
		"assessment:archive",
		"submission:view-all",
		"submission:grade",
		"submission:release",
		"artifact:upload",
	},
	"org_admin": {
		"assessment:*",
		"submission:*",
		"artifact:upload",
	},
	"super_admin": {
		"*", // everything
	},
}

// KnownRole reports whether the policy has an entry for role.
func KnownRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
