package models

// User represents an authenticated dashboard user.
type User struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	Name     string `gorm:"column:name" json:"name,omitempty"`
	Email    string `gorm:"column:email" json:"email"`
	Password string `gorm:"column:password" json:"-"` // bcrypt hash, never exposed in JSON
}

func (User) TableName() string { return "users" }
