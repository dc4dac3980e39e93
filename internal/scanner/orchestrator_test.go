package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ColdCrayon/Pickit-sub001/internal/models"
	"github.com/ColdCrayon/Pickit-sub001/internal/repository"
)

// stubRepo is the in-memory repository the orchestration tests run
// against. Opportunities merge by id exactly like the storage layer.
type stubRepo struct {
	mu sync.Mutex

	events []models.Event
	quotes map[string][]models.BookQuote
	defs   []models.PropDefinition
	opps   map[string]models.Opportunity

	failQuotesFor map[string]error

	upsertBatches int
	upsertMerges  int
	insertedRuns  []*models.ScanRun
	updatedRuns   []*models.ScanRun
	scannedEvents map[string]int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		quotes:        map[string][]models.BookQuote{},
		opps:          map[string]models.Opportunity{},
		failQuotesFor: map[string]error{},
		scannedEvents: map[string]int{},
	}
}

func quoteKey(eventID, marketID string) string { return eventID + "/" + marketID }

func (s *stubRepo) addQuote(row models.BookQuote) {
	key := quoteKey(row.EventID, row.MarketID)
	s.quotes[key] = append(s.quotes[key], row)
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (s *stubRepo) UpsertEvent(ctx context.Context, item *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == item.ID {
			s.events[i] = *item
			return nil
		}
	}
	s.events = append(s.events, *item)
	return nil
}

func (s *stubRepo) ListScanWindowEvents(ctx context.Context, params repository.ScanWindowParams) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Event, 0, len(s.events))
	for _, ev := range s.events {
		if params.Sport != "" && ev.Sport != params.Sport {
			continue
		}
		if ev.StartTime.Before(params.From) || !ev.StartTime.Before(params.To) {
			continue
		}
		matched = append(matched, ev)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].LastOddsUpdate.Equal(matched[j].LastOddsUpdate) {
			return matched[i].LastOddsUpdate.After(matched[j].LastOddsUpdate)
		}
		return matched[i].ID > matched[j].ID
	})
	if params.Cursor != nil {
		cut := 0
		for i, ev := range matched {
			after := ev.LastOddsUpdate.Before(params.Cursor.LastOddsUpdate) ||
				(ev.LastOddsUpdate.Equal(params.Cursor.LastOddsUpdate) && ev.ID < params.Cursor.ID)
			if after {
				cut = i
				break
			}
			cut = i + 1
		}
		matched = matched[cut:]
	}
	if params.PageSize > 0 && len(matched) > params.PageSize {
		matched = matched[:params.PageSize]
	}
	return matched, nil
}

func (s *stubRepo) MarkEventScanned(ctx context.Context, eventID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scannedEvents[eventID]++
	return nil
}

func (s *stubRepo) UpsertLatestQuote(ctx context.Context, item *models.BookQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addQuote(*item)
	return nil
}

func (s *stubRepo) ListQuotes(ctx context.Context, eventID, marketID string) ([]models.BookQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failQuotesFor[eventID]; ok {
		return nil, err
	}
	return s.quotes[quoteKey(eventID, marketID)], nil
}

func (s *stubRepo) UpsertPropDefinition(ctx context.Context, item *models.PropDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = append(s.defs, *item)
	return nil
}

func (s *stubRepo) ListPropDefinitions(ctx context.Context) ([]models.PropDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defs, nil
}

func (s *stubRepo) UpsertOpportunities(ctx context.Context, items []models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertBatches++
	for _, item := range items {
		if _, exists := s.opps[item.ID]; exists {
			s.upsertMerges++
		}
		s.opps[item.ID] = item
	}
	return nil
}

func (s *stubRepo) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Opportunity, 0, len(s.opps))
	for _, opp := range s.opps {
		out = append(out, opp)
	}
	return out, nil
}

func (s *stubRepo) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.opps)), nil
}

func (s *stubRepo) MarkOpportunitiesSettled(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertScanRun(ctx context.Context, item *models.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertedRuns = append(s.insertedRuns, item)
	return nil
}

func (s *stubRepo) UpdateScanRun(ctx context.Context, item *models.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedRuns = append(s.updatedRuns, item)
	return nil
}

var _ repository.Repository = (*stubRepo)(nil)

func newTestOrchestrator(repo *stubRepo) *Orchestrator {
	params := testParams()
	return &Orchestrator{
		Repo:      repo,
		Persister: &Persister{Repo: repo},
		Selector: &EventWindowSelector{
			Repo:         repo,
			PageSize:     25,
			FutureWindow: 48 * time.Hour,
			Lookback:     5 * time.Minute,
		},
		Params:   params,
		MaxPages: 4,
	}
}

func seedArbEvent(t *testing.T, repo *stubRepo, eventID string, now time.Time) {
	t.Helper()
	repo.events = append(repo.events, models.Event{
		ID:             eventID,
		Sport:          "basketball_nba",
		HomeTeam:       "Lakers",
		AwayTeam:       "Celtics",
		StartTime:      now.Add(4 * time.Hour),
		LastOddsUpdate: now,
	})
	rowA := mkQuoteRow(t, "booka", now, models.OddsMap{
		"home": {Price: 2.10}, "away": {Price: 1.75},
	})
	rowA.EventID = eventID
	rowB := mkQuoteRow(t, "bookb", now, models.OddsMap{
		"home": {Price: 1.75}, "away": {Price: 2.10},
	})
	rowB.EventID = eventID
	repo.addQuote(rowA)
	repo.addQuote(rowB)
}

func TestOrchestrator_RescanMergesNotInserts(t *testing.T) {
	repo := newStubRepo()
	now := time.Now().UTC()
	seedArbEvent(t, repo, "ev1", now)

	o := newTestOrchestrator(repo)
	req := ScanRequest{Market: "h2h", Trigger: "test"}

	first, err := o.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if first.Created != 1 || first.Scanned != 1 {
		t.Fatalf("first run created=%d scanned=%d", first.Created, first.Scanned)
	}
	if len(repo.opps) != 1 {
		t.Fatalf("rows=%d want=1", len(repo.opps))
	}

	second, err := o.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if second.Created != 1 {
		t.Fatalf("second run created=%d", second.Created)
	}
	if len(repo.opps) != 1 {
		t.Errorf("rows=%d after rescan, want=1 (merge, not insert)", len(repo.opps))
	}
	if repo.upsertMerges != 1 {
		t.Errorf("merges=%d want=1", repo.upsertMerges)
	}
	if repo.scannedEvents["ev1"] != 2 {
		t.Errorf("event scanned %d times, want 2", repo.scannedEvents["ev1"])
	}
}

func TestOrchestrator_EventFailureIsIsolated(t *testing.T) {
	repo := newStubRepo()
	now := time.Now().UTC()
	seedArbEvent(t, repo, "ev1", now)
	seedArbEvent(t, repo, "ev2", now.Add(-time.Second))
	seedArbEvent(t, repo, "ev3", now.Add(-2*time.Second))
	repo.failQuotesFor["ev2"] = errors.New("connection reset")

	o := newTestOrchestrator(repo)
	result, err := o.Scan(context.Background(), ScanRequest{Market: "h2h", Trigger: "test"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if result.Scanned != 2 {
		t.Errorf("scanned=%d want=2", result.Scanned)
	}
	if result.Created != 2 {
		t.Errorf("created=%d want=2", result.Created)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors=%d want=1", len(result.Errors))
	}
	if result.Errors[0].EventID != "ev2" {
		t.Errorf("failed event = %s", result.Errors[0].EventID)
	}
	if !strings.Contains(result.Errors[0].Error, "connection reset") {
		t.Errorf("error message = %q", result.Errors[0].Error)
	}

	// The failure lands in the persisted run report too.
	if len(repo.updatedRuns) != 1 {
		t.Fatalf("updated runs=%d want=1", len(repo.updatedRuns))
	}
	run := repo.updatedRuns[0]
	if run.FinishedAt == nil {
		t.Error("run not finished")
	}
	if len(run.Errors) == 0 || !strings.Contains(string(run.Errors), "ev2") {
		t.Errorf("run errors = %s", string(run.Errors))
	}
}

func TestOrchestrator_StaleQuotesProduceNothing(t *testing.T) {
	repo := newStubRepo()
	now := time.Now().UTC()
	repo.events = append(repo.events, models.Event{
		ID:             "ev1",
		Sport:          "basketball_nba",
		StartTime:      now.Add(4 * time.Hour),
		LastOddsUpdate: now,
	})
	stale := mkQuoteRow(t, "booka", now.Add(-120*time.Second), models.OddsMap{
		"home": {Price: 2.10},
	})
	fresh := mkQuoteRow(t, "bookb", now, models.OddsMap{
		"away": {Price: 2.10},
	})
	repo.addQuote(stale)
	repo.addQuote(fresh)

	o := newTestOrchestrator(repo)
	result, err := o.Scan(context.Background(), ScanRequest{Market: "h2h", Trigger: "test"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Created != 0 {
		t.Errorf("created=%d want=0, stale book must not participate", result.Created)
	}
	if result.Scanned != 1 {
		t.Errorf("scanned=%d want=1", result.Scanned)
	}
}

func TestOrchestrator_PageBudgetBoundsTheRun(t *testing.T) {
	repo := newStubRepo()
	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		seedArbEvent(t, repo, fmt.Sprintf("ev%02d", i), now.Add(-time.Duration(i)*time.Second))
	}

	o := newTestOrchestrator(repo)
	o.MaxPages = 2
	result, err := o.Scan(context.Background(), ScanRequest{Market: "h2h", Limit: 3, Trigger: "test"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Pages != 2 {
		t.Errorf("pages=%d want=2", result.Pages)
	}
	if result.Scanned != 6 {
		t.Errorf("scanned=%d want=6", result.Scanned)
	}
}

func TestOrchestrator_UnknownMarketRejected(t *testing.T) {
	o := newTestOrchestrator(newStubRepo())
	_, err := o.Scan(context.Background(), ScanRequest{Market: "futures", Trigger: "test"})
	if err == nil {
		t.Fatal("expected error for unknown market")
	}
}

func TestOrchestrator_PropsWithoutDefinitionsIsANoop(t *testing.T) {
	repo := newStubRepo()
	seedArbEvent(t, repo, "ev1", time.Now().UTC())

	o := newTestOrchestrator(repo)
	result, err := o.Scan(context.Background(), ScanRequest{Market: "props", Trigger: "test"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Created != 0 || result.Scanned != 0 || result.Pages != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
	if len(repo.updatedRuns) != 1 {
		t.Errorf("updated runs=%d want=1, empty runs still close their report", len(repo.updatedRuns))
	}
}

func TestOrchestrator_AllMarketIncludesProps(t *testing.T) {
	repo := newStubRepo()
	now := time.Now().UTC()
	seedArbEvent(t, repo, "ev1", now)

	def := models.PropDefinition{Key: "player_points", PlayerID: "p123"}
	if err := def.SetSelections([]string{"over", "under"}); err != nil {
		t.Fatalf("set selections: %v", err)
	}
	repo.defs = append(repo.defs, def)

	line := 27.5
	overRow := mkQuoteRow(t, "booka", now, models.OddsMap{
		"over": {Price: 2.10, Point: &line}, "under": {Price: 1.80, Point: &line},
	})
	overRow.MarketID = def.MarketID()
	underRow := mkQuoteRow(t, "bookb", now, models.OddsMap{
		"over": {Price: 1.80, Point: &line}, "under": {Price: 2.10, Point: &line},
	})
	underRow.MarketID = def.MarketID()
	repo.addQuote(overRow)
	repo.addQuote(underRow)

	o := newTestOrchestrator(repo)
	result, err := o.Scan(context.Background(), ScanRequest{Market: MarketAll, Trigger: "test"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	// One h2h ticket plus one prop ticket.
	if result.Created != 2 {
		t.Errorf("created=%d want=2", result.Created)
	}

	markets := map[string]bool{}
	for _, opp := range repo.opps {
		markets[opp.MarketID] = true
	}
	if !markets["h2h"] || !markets["player_points:p123"] {
		t.Errorf("markets = %v", markets)
	}
}
