package scanner

import (
	"context"
	"time"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
)

// EventWindowSelector pages through events whose start time falls in
// [now - Lookback, now + FutureWindow), most recently updated odds
// first. The cursor is the last event of the previous page; paging
// terminates on an empty page or the orchestrator's page budget.
type EventWindowSelector struct {
	Repo         repository.Repository
	PageSize     int
	FutureWindow time.Duration
	Lookback     time.Duration
}

func (s *EventWindowSelector) NextPage(ctx context.Context, sport string, now time.Time, cursor *repository.EventCursor) ([]models.Event, *repository.EventCursor, error) {
	if s == nil || s.Repo == nil {
		return nil, nil, nil
	}
	lookback := s.Lookback
	if lookback <= 0 {
		lookback = 5 * time.Minute
	}
	events, err := s.Repo.ListScanWindowEvents(ctx, repository.ScanWindowParams{
		Sport:    sport,
		From:     now.Add(-lookback),
		To:       now.Add(s.FutureWindow),
		PageSize: s.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		return nil, nil, nil
	}
	last := events[len(events)-1]
	next := &repository.EventCursor{
		LastOddsUpdate: last.LastOddsUpdate,
		ID:             last.ID,
	}
	return events, next, nil
}
