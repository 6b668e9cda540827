package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// widget is a throwaway kind used to drive the orchestrator without a
// database. Its name is the natural key.
type widget struct {
	Name  *string `json:"name"`
	Color *string `json:"color,omitempty"`
	Size  *int    `json:"size,omitempty"`
}

const widgetKind = "widget"

// widgetStore is an in-memory table. Writes made inside a fakeTx become
// visible only when the transaction commits.
type widgetStore struct {
	mu     sync.Mutex
	rows   map[int64]widget
	nextID int64

	// uniqueNames makes the store reject a second widget with the same name,
	// like a UNIQUE constraint.
	uniqueNames bool

	inserts int
	updates int
	lookups int
}

func newWidgetStore() *widgetStore {
	return &widgetStore{rows: make(map[int64]widget)}
}

func (s *widgetStore) seed(w widget) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.rows[s.nextID] = w
	return s.nextID
}

func (s *widgetStore) get(id int64) (widget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.rows[id]
	return w, ok
}

func (s *widgetStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *widgetStore) findByName(name string) (int64, widget, bool) {
	var (
		foundID int64
		found   widget
	)
	for id, w := range s.rows {
		if w.Name != nil && *w.Name == name && (foundID == 0 || id < foundID) {
			foundID, found = id, w
		}
	}
	return foundID, found, foundID != 0
}

func uniqueViolation(name string) error {
	return &pgconn.PgError{
		Code:    "23505",
		Message: `duplicate key value violates unique constraint "widgets_name_key"`,
		Detail:  "Key (name)=(" + name + ") already exists.",
	}
}

// registerWidgets installs the widget kind backed by store for one test.
func registerWidgets(t *testing.T, store *widgetStore) {
	t.Helper()
	Register(Kind[widget]{
		Key:       widgetKind,
		Label:     "Widgets",
		KeyFields: []string{"name"},
		Fields:    []string{"name", "color", "size"},
		Normalize: func(w *widget) {
			if w.Name != nil {
				*w.Name = strings.TrimSpace(*w.Name)
			}
		},
		Validate: func(w *widget) error {
			var c RecordChecker
			if c.Required("name", w.Name) {
				c.Length("name", w.Name, 1, 20)
			}
			c.NonNegative("size", w.Size)
			return c.Err()
		},
		NaturalKey: func(w *widget) NaturalKey {
			if w.Name == nil {
				return NaturalKey{""}
			}
			return NaturalKey{*w.Name}
		},
		Lookup: func(ctx context.Context, db DBTX, key NaturalKey) (*widget, int64, error) {
			store.mu.Lock()
			defer store.mu.Unlock()
			store.lookups++
			id, w, ok := store.findByName(key[0])
			if !ok {
				return nil, 0, nil
			}
			return &w, id, nil
		},
		Insert: func(ctx context.Context, db DBTX, w *widget) (int64, error) {
			tx := db.(*fakeTx)
			name := *w.Name
			switch name {
			case "explode":
				return 0, errors.New("connection lost\nwhile sending insert")
			case "panic":
				panic("widget insert blew up")
			}

			store.mu.Lock()
			defer store.mu.Unlock()
			if store.uniqueNames {
				if _, _, taken := store.findByName(name); taken {
					return 0, uniqueViolation(name)
				}
			}
			store.nextID++
			id := store.nextID
			row := *w
			tx.stage(func() {
				store.rows[id] = row
				store.inserts++
			})
			return id, nil
		},
		Merge: func(existing, candidate *widget) *widget {
			merged := *existing
			if candidate.Color != nil {
				merged.Color = candidate.Color
			}
			if candidate.Size != nil {
				merged.Size = candidate.Size
			}
			return &merged
		},
		Update: func(ctx context.Context, db DBTX, id int64, w *widget) error {
			tx := db.(*fakeTx)
			row := *w
			tx.stage(func() {
				store.rows[id] = row
				store.updates++
			})
			return nil
		},
	}.Definition())
	t.Cleanup(func() { Unregister(widgetKind) })
}

// fakeSession hands out fakeTx values.
type fakeSession struct {
	store *widgetStore

	mu        sync.Mutex
	txs       []*fakeTx
	beginErr  error
	commitErr error
}

func (s *fakeSession) Begin(ctx context.Context) (pgx.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	tx := &fakeTx{store: s.store, commitErr: s.commitErr}
	s.mu.Lock()
	s.txs = append(s.txs, tx)
	s.mu.Unlock()
	return tx, nil
}

func (s *fakeSession) committed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tx := range s.txs {
		if tx.committed {
			n++
		}
	}
	return n
}

// fakeTx embeds pgx.Tx so it satisfies the interface; only Commit and
// Rollback are implemented.
type fakeTx struct {
	pgx.Tx
	store     *widgetStore
	staged    []func()
	done      bool
	committed bool
	commitErr error
}

func (tx *fakeTx) stage(apply func()) {
	tx.staged = append(tx.staged, apply)
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	if tx.commitErr != nil {
		return tx.commitErr
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for _, apply := range tx.staged {
		apply()
	}
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true
	tx.staged = nil
	return nil
}

// fakeSink collects error entries.
type fakeSink struct {
	mu      sync.Mutex
	entries []ImportErrorEntry
	failing error
	calls   int
}

func (s *fakeSink) Record(ctx context.Context, e ImportErrorEntry) LogResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failing != nil {
		return notLogged(s.failing)
	}
	s.entries = append(s.entries, e)
	return logged()
}

// fakeLedger keeps batches in memory.
type fakeLedger struct {
	mu      sync.Mutex
	opens   []BatchOpen
	closes  []BatchClose
	openErr error
}

func (l *fakeLedger) Open(ctx context.Context, b BatchOpen) LogResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.openErr != nil {
		return notLogged(l.openErr)
	}
	l.opens = append(l.opens, b)
	return logged()
}

func (l *fakeLedger) Close(ctx context.Context, b BatchClose) LogResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closes = append(l.closes, b)
	return logged()
}

// stalledWrites blocks every sink, ledger and audit write until its context
// ends, the way a write waiting on an exhausted pool does.
type stalledWrites struct{}

func (stalledWrites) Open(ctx context.Context, b BatchOpen) LogResult {
	<-ctx.Done()
	return notLogged(ctx.Err())
}

func (stalledWrites) Close(ctx context.Context, b BatchClose) LogResult {
	<-ctx.Done()
	return notLogged(ctx.Err())
}

func (stalledWrites) Record(ctx context.Context, e ImportErrorEntry) LogResult {
	<-ctx.Done()
	return notLogged(ctx.Err())
}

func (stalledWrites) Log(ctx context.Context, p AuditLogParams) (*AuditEntry, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakeAudit collects audit params.
type fakeAudit struct {
	mu      sync.Mutex
	entries []AuditLogParams
}

func (a *fakeAudit) Log(ctx context.Context, p AuditLogParams) (*AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, p)
	return &AuditEntry{Action: p.Action, EntityType: p.EntityType, EntityID: p.EntityID}, nil
}

func (a *fakeAudit) actions() []AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]AuditAction, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

// harness wires an Importer to fresh fakes.
type harness struct {
	store    *widgetStore
	session  *fakeSession
	sink     *fakeSink
	ledger   *fakeLedger
	audit    *fakeAudit
	importer *Importer
}

func newHarness(t *testing.T, opts ...ImporterOption) *harness {
	t.Helper()
	store := newWidgetStore()
	registerWidgets(t, store)

	h := &harness{
		store:   store,
		session: &fakeSession{store: store},
		sink:    &fakeSink{},
		ledger:  &fakeLedger{},
		audit:   &fakeAudit{},
	}

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	base := []ImporterOption{
		WithAuditLogger(h.audit),
		WithClock(func() time.Time {
			clock = clock.Add(10 * time.Millisecond)
			return clock
		}),
		WithBatchIDs(func() string {
			seq++
			return fmt.Sprintf("00000000-0000-0000-0000-%012d", seq)
		}),
	}
	h.importer = NewImporter(h.sink, h.ledger, append(base, opts...)...)
	return h
}

func (h *harness) run(t *testing.T, cfg ImportConfig, records ...string) *ImportReport {
	t.Helper()
	report, err := h.importer.Import(context.Background(), h.session, widgetKind, candidates(records...), cfg)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	return report
}

func candidates(records ...string) Candidates {
	out := make(Candidates, len(records))
	for i, r := range records {
		out[i] = json.RawMessage(r)
	}
	return out
}

func config(skipDuplicates bool, onConflict OnConflict, logErrors bool) ImportConfig {
	return ImportConfig{
		SkipDuplicates: skipDuplicates,
		OnConflict:     onConflict,
		LogErrors:      logErrors,
		BatchSize:      DefaultBatchSize,
	}
}
