package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/domain/catalog"
	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/domain/retry"
	"product_registration_bot/internal/domain/warranty"
)

var errUnreachable = errors.New("registry: request failed after 3 attempt(s): connection refused")

type fakeBackend struct {
	mu       sync.Mutex
	checkFn  func(ctx context.Context, serial string, rc *retry.Context) (*registration.SerialCheck, error)
	submitFn func(ctx context.Context, p *registration.Payload, rc *retry.Context) (*registration.SubmitResult, error)
	checks   []string
	payloads []*registration.Payload
}

func (f *fakeBackend) CheckSerial(ctx context.Context, serial string, rc *retry.Context) (*registration.SerialCheck, error) {
	f.mu.Lock()
	f.checks = append(f.checks, serial)
	fn := f.checkFn
	f.mu.Unlock()
	if fn == nil {
		return &registration.SerialCheck{Status: "ok", Model: "XR-1"}, nil
	}
	return fn(ctx, serial, rc)
}

func (f *fakeBackend) Register(ctx context.Context, p *registration.Payload, rc *retry.Context) (*registration.SubmitResult, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	fn := f.submitFn
	f.mu.Unlock()
	if fn == nil {
		return &registration.SubmitResult{Result: "success"}, nil
	}
	return fn(ctx, p, rc)
}

func (f *fakeBackend) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}

type fakeCatalogSource struct {
	mu    sync.Mutex
	calls int
	cat   *catalog.Catalog
	err   error
}

func (f *fakeCatalogSource) LoadCatalog(ctx context.Context, rc *retry.Context) (*catalog.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.cat, f.err
}

type fakeRegistry struct {
	searchRes *warranty.SearchResult
	searchErr error
	clickErr  error
	clicks    []warranty.ClickEvent
}

func (f *fakeRegistry) Search(ctx context.Context, name, phone string, rc *retry.Context) (*warranty.SearchResult, error) {
	return f.searchRes, f.searchErr
}

func (f *fakeRegistry) LogClick(ctx context.Context, ev warranty.ClickEvent, rc *retry.Context) error {
	f.clicks = append(f.clicks, ev)
	return f.clickErr
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []*registration.JournalEntry
	err     error
}

func (f *fakeJournal) Record(ctx context.Context, e *registration.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return f.err
}

func (f *fakeJournal) ListBySerial(ctx context.Context, serialNo string) ([]*registration.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*registration.JournalEntry
	for _, e := range f.entries {
		if e.SerialNo == serialNo {
			out = append(out, e)
		}
	}
	return out, f.err
}

func (f *fakeJournal) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, f.err
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	sent []sentMessage
}

func (f *fakeNotifier) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Products: []string{"XR-1", "XR-2"},
		Stores: []catalog.Store{
			{Name: "강남점", Code: "S001", Agency: "서울대리점", Addr: "서울 강남구"},
			{Name: "AB Bikes", Code: "S002", Alias: "에이비"},
			{Name: "부산점", Code: "S003", Addr: "부산 해운대구", Phone: "051-000-0000"},
		},
	}
}
