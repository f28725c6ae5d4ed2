package model

import "time"

// DocumentSequence is a named counter behind VEN-, POS-, COM- and AST- numbers
type DocumentSequence struct {
	Name      string    `gorm:"type:varchar(30);primaryKey" json:"name"`
	Current   int64     `gorm:"not null" json:"current"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	SequenceSale     = "sale"
	SequencePOS      = "pos"
	SequencePurchase = "purchase"
	SequenceJournal  = "journal"
)
