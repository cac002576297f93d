package models

import "time"

type AuditEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	TableName *string   `db:"table_name" json:"table_name,omitempty"`
	RecordID  *int64    `db:"record_id" json:"record_id,omitempty"`
	OldValues *string   `db:"old_values" json:"old_values,omitempty"`
	NewValues *string   `db:"new_values" json:"new_values,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
