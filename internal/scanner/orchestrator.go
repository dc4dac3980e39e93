package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
)

// MarketAll scans every market family the orchestrator knows.
const MarketAll = "all"

// ScanRequest selects what one orchestrator invocation covers.
type ScanRequest struct {
	// Sport filters the event window; empty means every sport.
	Sport string
	// Market is h2h, spreads, totals, props or all.
	Market string
	// WindowHours overrides the configured future window when > 0.
	WindowHours int
	// Limit overrides the configured page size when > 0.
	Limit int
	// Trigger records how the run started (http, kick, cron).
	Trigger string
}

// EventError is one per-event failure captured into the run report
// instead of aborting the remaining pages.
type EventError struct {
	EventID string `json:"event_id"`
	Error   string `json:"error"`
}

type ScanResult struct {
	Created int          `json:"created"`
	Scanned int          `json:"scanned"`
	Pages   int          `json:"pages"`
	Errors  []EventError `json:"errors,omitempty"`
}

// Orchestrator drives selector → scanners → persister across pages.
// One invocation runs single-threaded; concurrent invocations are safe
// because tickets are keyed deterministically and merge-written.
type Orchestrator struct {
	Repo      repository.Repository
	Persister *Persister
	Selector  *EventWindowSelector
	Logger    *zap.Logger

	Params   Params
	MaxPages int
	// Deadline bounds one invocation's wall clock; partial progress
	// stands on timeout and the next trigger resumes the work.
	Deadline time.Duration
}

// Scan runs one bounded, paginated detection pass and returns the
// aggregate counters.
func (o *Orchestrator) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	var result ScanResult
	if o == nil || o.Repo == nil || o.Selector == nil {
		return result, nil
	}
	if o.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Deadline)
		defer cancel()
	}

	now := time.Now().UTC()
	run := &models.ScanRun{
		ID:        uuid.NewString(),
		Sport:     req.Sport,
		MarketID:  req.Market,
		Trigger:   req.Trigger,
		StartedAt: now,
	}
	if err := o.Repo.InsertScanRun(ctx, run); err != nil && o.Logger != nil {
		o.Logger.Warn("insert scan run failed", zap.Error(err))
	}

	scanners, err := o.resolveScanners(ctx, req.Market)
	if err != nil {
		return result, err
	}
	if len(scanners) == 0 {
		o.finishRun(ctx, run, result)
		return result, nil
	}

	selector := *o.Selector
	if req.Limit > 0 {
		selector.PageSize = req.Limit
	}
	if req.WindowHours > 0 {
		selector.FutureWindow = time.Duration(req.WindowHours) * time.Hour
	}

	maxPages := o.MaxPages
	if maxPages <= 0 {
		maxPages = 4
	}

	var cursor *repository.EventCursor
	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			break
		}
		events, next, err := selector.NextPage(ctx, req.Sport, now, cursor)
		if err != nil {
			o.finishRun(ctx, run, result)
			return result, fmt.Errorf("list scan window page %d: %w", page, err)
		}
		if len(events) == 0 {
			break
		}
		result.Pages++
		for _, event := range events {
			created, err := o.scanEvent(ctx, event, scanners)
			if err != nil {
				result.Errors = append(result.Errors, EventError{EventID: event.ID, Error: err.Error()})
				if o.Logger != nil {
					o.Logger.Warn("event scan failed",
						zap.String("event_id", event.ID), zap.Error(err))
				}
				continue
			}
			result.Scanned++
			result.Created += created
		}
		cursor = next
	}

	o.finishRun(ctx, run, result)
	if o.Logger != nil {
		o.Logger.Info("scan finished",
			zap.String("sport", req.Sport),
			zap.String("market", req.Market),
			zap.Int("pages", result.Pages),
			zap.Int("scanned", result.Scanned),
			zap.Int("created", result.Created),
			zap.Int("errors", len(result.Errors)),
		)
	}
	return result, nil
}

// scanEvent is the guarded per-event unit of work: a panic or error in
// one event's scan becomes a report entry, never a run abort.
func (o *Orchestrator) scanEvent(ctx context.Context, event models.Event, scanners []MarketScanner) (created int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	now := time.Now().UTC()
	var opps []models.Opportunity
	for _, sc := range scanners {
		rows, err := o.Repo.ListQuotes(ctx, event.ID, sc.MarketID())
		if err != nil {
			return 0, fmt.Errorf("list quotes %s: %w", sc.MarketID(), err)
		}
		quotes := make([]Quote, 0, len(rows))
		for _, row := range rows {
			quote, err := DecodeQuote(row)
			if err != nil {
				// One undecodable quote drops that book only.
				if o.Logger != nil {
					o.Logger.Debug("quote decode failed",
						zap.String("event_id", row.EventID),
						zap.String("book_id", row.BookID),
						zap.Error(err))
				}
				continue
			}
			quotes = append(quotes, quote)
		}
		quotes = FilterFresh(quotes, now, o.Params.Staleness)
		if len(quotes) < 2 {
			continue
		}
		opps = append(opps, sc.Scan(event, quotes, now)...)
	}

	if err := o.Persister.Persist(ctx, opps); err != nil {
		return 0, err
	}
	if err := o.Repo.MarkEventScanned(ctx, event.ID, now); err != nil && o.Logger != nil {
		o.Logger.Warn("mark event scanned failed",
			zap.String("event_id", event.ID), zap.Error(err))
	}
	return len(opps), nil
}

// resolveScanners maps the requested market onto scanner instances.
// Prop scanners are rebuilt per run from the current definitions.
func (o *Orchestrator) resolveScanners(ctx context.Context, market string) ([]MarketScanner, error) {
	market = strings.ToLower(strings.TrimSpace(market))
	var scanners []MarketScanner
	team := map[string]MarketScanner{
		"h2h":     &MoneylineScanner{Params: o.Params},
		"spreads": &SpreadScanner{Params: o.Params},
		"totals":  &TotalScanner{Params: o.Params},
	}
	if sc, ok := team[market]; ok {
		return []MarketScanner{sc}, nil
	}
	if market != "props" && market != MarketAll {
		return nil, fmt.Errorf("unknown market %q", market)
	}
	if market == MarketAll {
		scanners = append(scanners, team["h2h"], team["spreads"], team["totals"])
	}
	defs, err := o.Repo.ListPropDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prop definitions: %w", err)
	}
	for _, def := range defs {
		if sc, ok := NewPropScanner(o.Params, def); ok {
			scanners = append(scanners, sc)
		}
	}
	return scanners, nil
}

func (o *Orchestrator) finishRun(ctx context.Context, run *models.ScanRun, result ScanResult) {
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Pages = result.Pages
	run.Scanned = result.Scanned
	run.Created = result.Created
	if len(result.Errors) > 0 {
		if raw, err := json.Marshal(result.Errors); err == nil {
			run.Errors = datatypes.JSON(raw)
		}
	}
	if err := o.Repo.UpdateScanRun(ctx, run); err != nil && o.Logger != nil {
		o.Logger.Warn("update scan run failed", zap.Error(err))
	}
}
