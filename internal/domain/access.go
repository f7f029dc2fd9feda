package domain

// Role is a user's effective access to a task.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = "none"
)

// RoleFromPermission maps a share permission onto the role it grants.
func RoleFromPermission(p Permission) Role {
	switch p {
	case PermissionEditor:
		return RoleEditor
	case PermissionViewer:
		return RoleViewer
	default:
		return RoleNone
	}
}

// CanView reports whether the role may read the task.
func (r Role) CanView() bool {
	return r == RoleOwner || r == RoleEditor || r == RoleViewer
}

// CanEdit reports whether the role may modify the task.
func (r Role) CanEdit() bool {
	return r == RoleOwner || r == RoleEditor
}

// CanDelete reports whether the role may delete or re-share the task.
func (r Role) CanDelete() bool {
	return r == RoleOwner
}

// rank orders roles so duplicates collapse to the strongest one.
func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// Stronger returns whichever of r and other grants more access.
func (r Role) Stronger(other Role) Role {
	if other.rank() > r.rank() {
		return other
	}
	return r
}

// VisibleTask is a task annotated with the viewing user's role. It is the
// value cached per user for task listings.
type VisibleTask struct {
	Task    *Task `json:"task"`
	Role    Role  `json:"role"`
	CanEdit bool  `json:"can_edit"`
}

// NewVisibleTask annotates task with role.
func NewVisibleTask(task *Task, role Role) VisibleTask {
	return VisibleTask{Task: task, Role: role, CanEdit: role.CanEdit()}
}
