package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionPasscodesIssue allows minting passcodes for students.
	PermissionPasscodesIssue Permission = "passcodes:issue"

	// PermissionPasscodesRevoke allows revoking unused passcodes.
	PermissionPasscodesRevoke Permission = "passcodes:revoke"

	// PermissionPasscodesRead allows looking up and validating passcodes.
	PermissionPasscodesRead Permission = "passcodes:read"

	// PermissionResultsRead allows viewing graded exam results.
	PermissionResultsRead Permission = "results:read"

	// PermissionHallsMonitor allows streaming live hall admission events.
	PermissionHallsMonitor Permission = "halls:monitor"
)

// rolePermissions maps each staff role to its permission set. Derived in
// code rather than stored, so role semantics cannot drift per deployment.
var rolePermissions = map[ProctorRole][]Permission{
	RoleProctor: {
		PermissionPasscodesIssue,
		PermissionPasscodesRevoke,
		PermissionPasscodesRead,
	},
	RoleExamOfficer: {
		PermissionPasscodesIssue,
		PermissionPasscodesRevoke,
		PermissionPasscodesRead,
		PermissionResultsRead,
		PermissionHallsMonitor,
	},
}

// PermissionsForRole returns the permission codes granted to a role.
func PermissionsForRole(role ProctorRole) []string {
	perms := rolePermissions[role]
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	return codes
}
