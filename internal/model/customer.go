package model

import (
	"time"
)

// Customer is a buyer the dealer issues sales invoices and official receipts to.
type Customer struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CustomerName  string     `gorm:"type:varchar(255);not null;index" json:"customer_name"`
	Address       string     `gorm:"type:text" json:"address"`
	ContactNumber string     `gorm:"type:varchar(50)" json:"contact_number"`
	DateOfBirth   *time.Time `gorm:"type:date" json:"date_of_birth"`
	TIN           string     `gorm:"column:tin;type:varchar(50)" json:"tin"` // Taxpayer identification number
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Branch is a dealer outlet that issues documents.
type Branch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BranchName string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"branch_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
