package api

type Role string

const (
	AdminRole  Role = "admin"
	EditorRole Role = "editor"
	ViewerRole Role = "viewer"
)

func GetRole(s string) Role {
	switch Role(s) {
	case AdminRole:
		return AdminRole
	case EditorRole:
		return EditorRole
	case ViewerRole:
		return ViewerRole
	default:
		return ViewerRole
	}
}
