package model

import "testing"

func TestPermissionsForRole(t *testing.T) {
	contains := func(codes []string, code Permission) bool {
		for _, c := range codes {
			if c == string(code) {
				return true
			}
		}
		return false
	}

	t.Run("Proctor", func(t *testing.T) {
		codes := PermissionsForRole(RoleProctor)
		if !contains(codes, PermissionPasscodesIssue) {
			t.Error("proctor must be able to issue passcodes")
		}
		if contains(codes, PermissionResultsRead) || contains(codes, PermissionHallsMonitor) {
			t.Error("proctor must not read results or monitor halls")
		}
	})

	t.Run("ExamOfficer", func(t *testing.T) {
		codes := PermissionsForRole(RoleExamOfficer)
		for _, p := range []Permission{
			PermissionPasscodesIssue,
			PermissionPasscodesRevoke,
			PermissionPasscodesRead,
			PermissionResultsRead,
			PermissionHallsMonitor,
		} {
			if !contains(codes, p) {
				t.Errorf("exam officer missing %s", p)
			}
		}
	})

	t.Run("UnknownRole", func(t *testing.T) {
		if codes := PermissionsForRole(ProctorRole("INTERN")); len(codes) != 0 {
			t.Errorf("unknown role got %v", codes)
		}
	})
}
