package enums

import "fmt"

// WorkerRole names a stage-specific worker category on the roster.
type WorkerRole string

const (
	WorkerRoleThreading WorkerRole = "threading_worker"
	WorkerRoleCutting   WorkerRole = "cutting_worker"
	WorkerRoleAdmin     WorkerRole = "admin"
	WorkerRoleTailor    WorkerRole = "tailor"
	WorkerRoleButtoning WorkerRole = "buttoning_worker"
	WorkerRoleIroning   WorkerRole = "ironing_worker"
	WorkerRolePackaging WorkerRole = "packaging_worker"
)

var validWorkerRoles = []WorkerRole{
	WorkerRoleThreading,
	WorkerRoleCutting,
	WorkerRoleAdmin,
	WorkerRoleTailor,
	WorkerRoleButtoning,
	WorkerRoleIroning,
	WorkerRolePackaging,
}

// String implements fmt.Stringer.
func (w WorkerRole) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkerRole.
func (w WorkerRole) IsValid() bool {
	for _, candidate := range validWorkerRoles {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWorkerRole converts raw input into a WorkerRole.
func ParseWorkerRole(value string) (WorkerRole, error) {
	for _, candidate := range validWorkerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid worker role %q", value)
}
