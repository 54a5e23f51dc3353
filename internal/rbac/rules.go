package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
	},
	"teacher": {
		"quiz:view",
		"quiz:ingest",
		"attempt:view-all",
		"attempt:grade",
		"analytics:view",
	},
	"admin": {
		"*", // everything
	},
}
