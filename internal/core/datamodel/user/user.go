package user

import "time"

type User struct {
	Name        string    `gorm:"column:name;primaryKey;size:128"`
	ID          string    `gorm:"column:id;uniqueIndex;size:64;not null"`
	PublicMeta  string    `gorm:"column:public_meta;type:text"`
	PrivateMeta string    `gorm:"column:private_meta;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type UserRole struct {
	UserName string `gorm:"column:user_name;primaryKey;size:128"`
	RoleName string `gorm:"column:role_name;primaryKey;size:128"`
	Position int    `gorm:"column:position;not null;default:0"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
