// Package ledger tracks which contacts have already received the campaign,
// so re-runs and overlapping spreadsheets never message the same person
// twice.
package ledger

import (
	"errors"
	"fmt"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/models"

	"gorm.io/gorm"
)

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Seen reports whether personID already has a sent record.
func (l *Ledger) Seen(personID string) (bool, error) {
	var rec models.SentRecord
	err := l.db.Where("person_id = ?", personID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup %q: %w", personID, err)
	}
	return true, nil
}

// Record marks personID as messaged. Recording the same person twice is a
// no-op rather than an error, matching the append-once semantics.
func (l *Ledger) Record(personID, chatURL string) error {
	rec := models.SentRecord{PersonID: personID, ChatURL: chatURL}
	err := l.db.Create(&rec).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	if err != nil {
		// Some sqlite builds report constraint violations as plain errors.
		if seen, seenErr := l.Seen(personID); seenErr == nil && seen {
			return nil
		}
		return fmt.Errorf("ledger record %q: %w", personID, err)
	}
	return nil
}
