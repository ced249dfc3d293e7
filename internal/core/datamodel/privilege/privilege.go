package privilege

import "time"

type Action struct {
	Name        string    `gorm:"column:name;primaryKey;size:128"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Action) TableName() string {
	return "actions"
}

type Permission struct {
	Name      string    `gorm:"column:name;primaryKey;size:128"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

// PermissionAction references an action by name; the action row may be gone.
type PermissionAction struct {
	PermissionName string `gorm:"column:permission_name;primaryKey;size:128"`
	ActionName     string `gorm:"column:action_name;primaryKey;size:128"`
	Position       int    `gorm:"column:position;not null;default:0"`
}

func (PermissionAction) TableName() string {
	return "permission_actions"
}

type Role struct {
	Name      string    `gorm:"column:name;primaryKey;size:128"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

type RolePermission struct {
	RoleName       string `gorm:"column:role_name;primaryKey;size:128"`
	PermissionName string `gorm:"column:permission_name;primaryKey;size:128"`
	Position       int    `gorm:"column:position;not null;default:0"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
