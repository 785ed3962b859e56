package enums

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, true
	case RoleOrganizer:
		return RoleOrganizer, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}
