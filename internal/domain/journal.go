package domain

import "time"

// JournalKind enumerates journal types.
type JournalKind string

const (
	JournalKindGeneral  JournalKind = "general"
	JournalKindSale     JournalKind = "sale"
	JournalKindPurchase JournalKind = "purchase"
	JournalKindBank     JournalKind = "bank"
)

// Journal is a host journal on which moves are posted.
type Journal struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	Kind      JournalKind
	CreatedAt time.Time
}
