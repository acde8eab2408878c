package customers

import (
	"fmt"
	"time"
)

// Customer is a directory entry for the party a job is billed to. Jobs
// keep a denormalized customer id/name pair; this record is the source
// of contact details and active status.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	TargetedAmount float64   `json:"targetedAmount"`
	CurrentAmount  float64   `json:"currentAmount"`
	IsActive       bool      `json:"isActive"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewCustomerID mints a CUST- identifier from the current time.
func NewCustomerID(now time.Time) string {
	return fmt.Sprintf("CUST-%d", now.UnixMilli())
}
