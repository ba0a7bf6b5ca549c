package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle is a unit in the dealer's stock that can be sold on a Vehicle invoice.
type Vehicle struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	VehicleType  string          `gorm:"type:varchar(100)" json:"vehicle_type"`
	Make         string          `gorm:"type:varchar(100)" json:"make"`
	Color        string          `gorm:"type:varchar(50)" json:"color"`
	GVW          decimal.Decimal `gorm:"column:gvw;type:decimal(12,2);not null;default:0" json:"gvw"` // Gross vehicle weight
	EngineNumber string          `gorm:"type:varchar(100);index" json:"engine_number"`
	SerialNumber string          `gorm:"type:varchar(100);index" json:"serial_number"`
	PlateNumber  string          `gorm:"type:varchar(30)" json:"plate_number"`
	CSNumber     string          `gorm:"column:cs_number;type:varchar(50)" json:"cs_number"` // Conduction sticker
	Description  string          `gorm:"type:text;not null" json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
