package domain

import "time"

// AuditFields holds standard audit information for mutable domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}
