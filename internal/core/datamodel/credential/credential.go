package credential

import "time"

type Credential struct {
	OwnerUserName string    `gorm:"column:owner_user_name;primaryKey;size:128"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	UserIDHash    string    `gorm:"column:user_id_hash;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Credential) TableName() string {
	return "credentials"
}
