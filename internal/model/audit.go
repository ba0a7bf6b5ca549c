package model

import (
	"time"
)

const (
	ActionCreateCustomer = "CREATE_CUSTOMER"
	ActionUpdateCustomer = "UPDATE_CUSTOMER"
	ActionDeleteCustomer = "DELETE_CUSTOMER"
	ActionCreateBranch   = "CREATE_BRANCH"
	ActionUpdateBranch   = "UPDATE_BRANCH"
	ActionDeleteBranch   = "DELETE_BRANCH"
	ActionCreateVehicle  = "CREATE_VEHICLE"
	ActionUpdateVehicle  = "UPDATE_VEHICLE"
	ActionDeleteVehicle  = "DELETE_VEHICLE"

	ActionCreateSalesInvoice = "CREATE_SALES_INVOICE"
	ActionUpdateSalesInvoice = "UPDATE_SALES_INVOICE"
	ActionDeleteSalesInvoice = "DELETE_SALES_INVOICE"

	ActionCreateOfficialReceipt = "CREATE_OFFICIAL_RECEIPT"
	ActionUpdateOfficialReceipt = "UPDATE_OFFICIAL_RECEIPT"
	ActionDeleteOfficialReceipt = "DELETE_OFFICIAL_RECEIPT"
)

// AuditLog tracks What and When for changes to back-office records
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"type:varchar(64);index" json:"request_id,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string    `gorm:"type:text" json:"details"`                       // Serialized JSON payload of the action
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
