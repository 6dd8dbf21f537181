package models

import (
	"time"
)

// SentRecord is one entry in the duplicate-contact ledger. A contact is
// identified by their full name as it appears in the spreadsheet; once a
// record exists the contact is never messaged again, across runs.
type SentRecord struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PersonID string    `gorm:"uniqueIndex;not null" json:"person_id"`
	ChatURL  string    `gorm:"type:text" json:"chat_url"`
	SentAt   time.Time `gorm:"autoCreateTime" json:"sent_at"`
}

func (SentRecord) TableName() string {
	return "sent_records"
}
