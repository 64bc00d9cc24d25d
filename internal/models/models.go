package models

// Customer owns invoices. Customers are managed outside the invoice flow.
type Customer struct {
	ID       string `gorm:"column:id;primaryKey" json:"id"`
	Name     string `gorm:"column:name" json:"name"`
	Email    string `gorm:"column:email" json:"email"`
	ImageURL string `gorm:"column:image_url" json:"image_url"`
}

func (Customer) TableName() string { return "customers" }
