package model

import (
	"strings"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleWorker  UserRole = "worker"
)

// ParseUserRole accepts the role claim as issued by the identity provider.
func ParseUserRole(raw string) (UserRole, bool) {
	switch UserRole(strings.ToLower(strings.TrimSpace(raw))) {
	case UserRoleAdmin:
		return UserRoleAdmin, true
	case UserRoleManager:
		return UserRoleManager, true
	case UserRoleWorker:
		return UserRoleWorker, true
	default:
		return "", false
	}
}

type Principal struct {
	UserID uuid.UUID
	Role   UserRole
	Name   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsManager() bool {
	return p.Role == UserRoleManager
}

func (p Principal) IsWorker() bool {
	return p.Role == UserRoleWorker
}

// CanManage reports whether the caller belongs to the back-office roles.
func (p Principal) CanManage() bool {
	return p.IsAdmin() || p.IsManager()
}
