package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/gengo-go/internal/domain"
	"github.com/samvad-hq/gengo-go/internal/storage"
	"github.com/samvad-hq/gengo-go/pkg/mygengo"
	"github.com/samvad-hq/gengo-go/pkg/publishers"
)

// fakeFetcher serves statuses by job id and can inject errors.
type fakeFetcher struct {
	mu       sync.Mutex
	statuses map[string]string
	errs     map[string]error
	calls    []string
}

func (f *fakeFetcher) Job(_ context.Context, id string) (*mygengo.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	payload := fmt.Sprintf(`{"job":{"job_id":%s,"status":%q,"lc_src":"en","lc_tgt":"ja"}}`, id, f.statuses[id])
	return &mygengo.Response{Opstat: mygengo.OpstatOK, Payload: json.RawMessage(payload)}, nil
}

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.events = append(f.events, evt)
	return 1, nil
}

func newStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewStore("bbolt", filepath.Join(t.TempDir(), "jobs.db"), storage.Options{
		JobTTL:          time.Hour,
		CleanupInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func track(t *testing.T, store storage.Store, jobs map[string]string) {
	t.Helper()
	for id, status := range jobs {
		if err := store.TrackJob(id, status); err != nil {
			t.Fatalf("TrackJob %s: %v", id, err)
		}
	}
}

func TestRunOncePublishesStatusChanges(t *testing.T) {
	store := newStore(t)
	track(t, store, map[string]string{"1": domain.StatusAvailable, "2": domain.StatusPending})

	fetcher := &fakeFetcher{statuses: map[string]string{"1": domain.StatusReviewable, "2": domain.StatusPending}}
	pub := &fakePublisher{}
	svc := NewService(fetcher, store, pub, "sandbox", nil)

	res, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Checked != 2 || res.Changed != 1 || res.Forgotten != 0 {
		t.Fatalf("unexpected result %#v", res)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Type != domain.EventStatusChange || evt.JobID != "1" || evt.PreviousStatus != domain.StatusAvailable || evt.Status != domain.StatusReviewable {
		t.Fatalf("unexpected event %#v", evt)
	}
	if evt.Environment != "sandbox" {
		t.Fatalf("environment = %q", evt.Environment)
	}
	var job map[string]any
	if err := json.Unmarshal(evt.Job, &job); err != nil || job["lc_tgt"] != "ja" {
		t.Fatalf("event job payload = %s (%v)", evt.Job, err)
	}

	status, found, _ := store.JobStatus("1")
	if !found || status != domain.StatusReviewable {
		t.Fatalf("ledger status = %q found=%v", status, found)
	}

	// A second pass with no changes publishes nothing.
	if _, err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected no new events, got %d", len(pub.events))
	}
}

func TestRunOnceForgetsTerminalJobs(t *testing.T) {
	store := newStore(t)
	track(t, store, map[string]string{"9": domain.StatusReviewable})

	fetcher := &fakeFetcher{statuses: map[string]string{"9": domain.StatusApproved}}
	pub := &fakePublisher{}
	svc := NewService(fetcher, store, pub, "production", nil)

	res, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Forgotten != 1 {
		t.Fatalf("expected job to be forgotten, got %#v", res)
	}
	if len(pub.events) != 2 || pub.events[0].Type != domain.EventStatusChange || pub.events[1].Type != domain.EventJobRemoved {
		t.Fatalf("unexpected events %#v", pub.events)
	}
	if _, found, _ := store.JobStatus("9"); found {
		t.Fatalf("terminal job should be removed from the ledger")
	}
}

func TestRunOnceKeepsLedgerWhenPublishFails(t *testing.T) {
	store := newStore(t)
	track(t, store, map[string]string{"5": domain.StatusAvailable})

	fetcher := &fakeFetcher{statuses: map[string]string{"5": domain.StatusPending}}
	pub := &fakePublisher{err: errors.New("sink down")}
	svc := NewService(fetcher, store, pub, "sandbox", nil)

	res, err := svc.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if res.Failed != 1 {
		t.Fatalf("expected 1 failure, got %#v", res)
	}
	if status, _, _ := store.JobStatus("5"); status != domain.StatusAvailable {
		t.Fatalf("ledger should keep old status, got %q", status)
	}
}

func TestRunOnceJoinsJobErrors(t *testing.T) {
	store := newStore(t)
	track(t, store, map[string]string{"1": domain.StatusQueued, "2": domain.StatusQueued})

	notFound := &mygengo.APIError{Method: "getTranslationJob", Opstat: mygengo.OpstatError, Code: 2450, Message: "job not found"}
	fetcher := &fakeFetcher{
		statuses: map[string]string{"2": domain.StatusAvailable},
		errs:     map[string]error{"1": notFound},
	}
	pub := &fakePublisher{}
	svc := NewService(fetcher, store, pub, "sandbox", nil)

	res, err := svc.RunOnce(context.Background())
	if !errors.Is(err, mygengo.ErrAPI) {
		t.Fatalf("expected ErrAPI in joined error, got %v", err)
	}
	if res.Checked != 2 || res.Failed != 1 || res.Changed != 1 {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestRunOnceStopsOnAuthError(t *testing.T) {
	store := newStore(t)
	track(t, store, map[string]string{"1": domain.StatusQueued, "2": domain.StatusQueued})

	authErr := &mygengo.APIError{Method: "getTranslationJob", Opstat: mygengo.OpstatError, Code: 1100, Message: "authentication failed"}
	fetcher := &fakeFetcher{errs: map[string]error{"1": authErr, "2": authErr}}
	svc := NewService(fetcher, store, &fakePublisher{}, "sandbox", nil)

	_, err := svc.RunOnce(context.Background())
	if !errors.Is(err, mygengo.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected pass to stop after first auth failure, calls=%v", fetcher.calls)
	}
}

func TestRunOnceRequiresDependencies(t *testing.T) {
	if _, err := (&Service{}).RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error for uninitialized service")
	}
}
