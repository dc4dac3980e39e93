package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Events -----------------------------------------------------------------

func (s *Store) UpsertEvent(ctx context.Context, item *models.Event) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.ID) == "" {
		return nil
	}
	// expires_at is written once and then left alone so the TTL set on
	// first sight sticks; last_scanned_at belongs to the scan path.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sport",
			"home_team",
			"away_team",
			"start_time",
			"last_odds_update",
		}),
	}).Create(item).Error
}

func (s *Store) ListScanWindowEvents(ctx context.Context, params repository.ScanWindowParams) ([]models.Event, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("start_time >= ? AND start_time < ?", params.From, params.To)
	if strings.TrimSpace(params.Sport) != "" {
		query = query.Where("sport = ?", strings.TrimSpace(params.Sport))
	}
	if params.Cursor != nil {
		query = query.Where(
			"(last_odds_update, id) < (?, ?)",
			params.Cursor.LastOddsUpdate, params.Cursor.ID,
		)
	}
	limit := params.PageSize
	if limit <= 0 {
		limit = 25
	}
	var items []models.Event
	err := query.
		Order("last_odds_update DESC").
		Order("id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkEventScanned(ctx context.Context, eventID string, at time.Time) error {
	if s == nil || s.db == nil || strings.TrimSpace(eventID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ?", eventID).
		Update("last_scanned_at", at).Error
}

// --- Quotes -----------------------------------------------------------------

func (s *Store) UpsertLatestQuote(ctx context.Context, item *models.BookQuote) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "event_id"}, {Name: "market_id"}, {Name: "book_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"updated_at",
				"odds",
			}),
		}).Create(item).Error; err != nil {
			return err
		}
		snapshot := models.QuoteSnapshot{
			EventID:   item.EventID,
			MarketID:  item.MarketID,
			BookID:    item.BookID,
			UpdatedAt: item.UpdatedAt,
			Odds:      item.Odds,
		}
		return tx.Create(&snapshot).Error
	})
}

func (s *Store) ListQuotes(ctx context.Context, eventID, marketID string) ([]models.BookQuote, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.BookQuote
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND market_id = ?", eventID, marketID).
		Order("book_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Prop definitions -------------------------------------------------------

func (s *Store) UpsertPropDefinition(ctx context.Context, item *models.PropDefinition) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"player_name",
			"player_team",
			"selections",
		}),
	}).Create(item).Error
}

func (s *Store) ListPropDefinitions(ctx context.Context) ([]models.PropDefinition, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PropDefinition
	err := s.db.WithContext(ctx).
		Order("key ASC").
		Order("player_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Opportunities ----------------------------------------------------------

// UpsertOpportunities merge-writes a batch keyed by the deterministic
// id. created_at and settle date survive a conflict; margin, legs and
// last_confirmed_at are refreshed, so a rediscovered ticket reads as
// recently confirmed rather than duplicated.
func (s *Store) UpsertOpportunities(ctx context.Context, items []models.Opportunity) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"margin",
				"legs",
				"last_confirmed_at",
				"updated_at",
			}),
		}).Create(&items).Error
	})
}

func (s *Store) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyOpportunityFilters(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Opportunity
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.applyOpportunityFilters(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) MarkOpportunitiesSettled(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Opportunity{}).
		Where("server_settled = ? AND settle_date < ?", false, now).
		Update("server_settled", true)
	return res.RowsAffected, res.Error
}

func (s *Store) applyOpportunityFilters(ctx context.Context, params repository.ListOpportunitiesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Opportunity{})
	if params.EventID != nil && strings.TrimSpace(*params.EventID) != "" {
		query = query.Where("event_id = ?", strings.TrimSpace(*params.EventID))
	}
	if params.MarketID != nil && strings.TrimSpace(*params.MarketID) != "" {
		query = query.Where("market_id = ?", strings.TrimSpace(*params.MarketID))
	}
	if params.MinMargin != nil {
		query = query.Where("margin >= ?", *params.MinMargin)
	}
	if params.Settled != nil {
		query = query.Where("server_settled = ?", *params.Settled)
	}
	return query
}

// --- Scan runs --------------------------------------------------------------

func (s *Store) InsertScanRun(ctx context.Context, item *models.ScanRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateScanRun(ctx context.Context, item *models.ScanRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

// --- Helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	switch column {
	case "created_at", "updated_at", "margin", "settle_date", "last_confirmed_at":
	default:
		column = fallback
	}
	direction := " DESC"
	if asc != nil && *asc {
		direction = " ASC"
	}
	return query.Order(column + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
