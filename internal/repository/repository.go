package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
)

// EventCursor is the keyset cursor for the scan window: the last event
// of the previous page. Ordering is (last_odds_update desc, id desc),
// so the pair pins a deterministic position even when several events
// share an update timestamp.
type EventCursor struct {
	LastOddsUpdate time.Time
	ID             string
}

// ScanWindowParams selects the page of events a scan invocation works
// through: start time inside [From, To), most recently updated odds
// first.
type ScanWindowParams struct {
	Sport    string
	From     time.Time
	To       time.Time
	PageSize int
	Cursor   *EventCursor
}

type ListOpportunitiesParams struct {
	EventID   *string
	MarketID  *string
	MinMargin *decimal.Decimal
	Settled   *bool
	Limit     int
	Offset    int
	OrderBy   string
	Asc       *bool
}

// Repository is the storage port the detection core depends on. The
// gorm implementation lives in repository/gorm; tests use in-memory
// stubs.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Events.
	UpsertEvent(ctx context.Context, item *models.Event) error
	ListScanWindowEvents(ctx context.Context, params ScanWindowParams) ([]models.Event, error)
	MarkEventScanned(ctx context.Context, eventID string, at time.Time) error

	// Quotes: merge-write the latest row and append a history snapshot
	// in the same transaction.
	UpsertLatestQuote(ctx context.Context, item *models.BookQuote) error
	ListQuotes(ctx context.Context, eventID, marketID string) ([]models.BookQuote, error)

	// Prop definitions.
	UpsertPropDefinition(ctx context.Context, item *models.PropDefinition) error
	ListPropDefinitions(ctx context.Context) ([]models.PropDefinition, error)

	// Opportunities: batched merge-upsert keyed by the deterministic id.
	UpsertOpportunities(ctx context.Context, items []models.Opportunity) error
	ListOpportunities(ctx context.Context, params ListOpportunitiesParams) ([]models.Opportunity, error)
	CountOpportunities(ctx context.Context, params ListOpportunitiesParams) (int64, error)
	MarkOpportunitiesSettled(ctx context.Context, now time.Time) (int64, error)

	// Scan runs.
	InsertScanRun(ctx context.Context, item *models.ScanRun) error
	UpdateScanRun(ctx context.Context, item *models.ScanRun) error
}
