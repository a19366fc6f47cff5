package storage

import (
	"testing"
	"time"
)

func TestBoltStoreTracksAndExpiresJobs(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		JobTTL:          time.Hour,
		CleanupInterval: time.Hour,
	}

	storeRaw, err := openBolt(dir+"/jobs.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	if _, found, err := store.JobStatus("42"); err != nil || found {
		t.Fatalf("expected untracked job, found=%v err=%v", found, err)
	}

	if err := store.TrackJob("42", "available"); err != nil {
		t.Fatalf("TrackJob: %v", err)
	}
	status, found, err := store.JobStatus("42")
	if err != nil || !found || status != "available" {
		t.Fatalf("JobStatus = %q found=%v err=%v", status, found, err)
	}

	if err := store.TrackJob("42", "reviewable"); err != nil {
		t.Fatalf("TrackJob update: %v", err)
	}
	if status, _, _ := store.JobStatus("42"); status != "reviewable" {
		t.Fatalf("status after update = %q", status)
	}

	// Move past the TTL and the cleanup cadence.
	now = now.Add(2 * time.Hour)
	jobs, err := store.Jobs()
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected expired job to be dropped, got %#v", jobs)
	}
	if _, found, _ := store.JobStatus("42"); found {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestBoltStoreJobsAndForget(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/nested/jobs.db", Options{JobTTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer storeRaw.Close()

	for _, id := range []string{"3", "1", "2"} {
		if err := storeRaw.TrackJob(id, "queued"); err != nil {
			t.Fatalf("TrackJob %s: %v", id, err)
		}
	}
	if err := storeRaw.Forget("2"); err != nil {
		t.Fatalf("Forget: %v", err)
	}

	jobs, err := storeRaw.Jobs()
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "1" || jobs[1].ID != "3" {
		t.Fatalf("unexpected jobs: %#v", jobs)
	}
	if jobs[0].Status != "queued" {
		t.Fatalf("status = %q", jobs[0].Status)
	}
}

func TestBoltStoreRejectsEmptyID(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/jobs.db", Options{JobTTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer storeRaw.Close()

	if err := storeRaw.TrackJob("  ", "queued"); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestDecodeEntryRejectsShortValues(t *testing.T) {
	if _, _, ok := decodeEntry([]byte{1, 2}); ok {
		t.Fatalf("expected short value to be rejected")
	}
	exp := time.Unix(1700000000, 0)
	got, status, ok := decodeEntry(encodeEntry(exp, "pending"))
	if !ok || !got.Equal(exp) || status != "pending" {
		t.Fatalf("decodeEntry = %v %q %v", got, status, ok)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.TrackJob("x", "queued"); err != nil {
		t.Fatalf("noop store TrackJob: %v", err)
	}
	if _, err := NewStore("bbolt", "", Options{}); err == nil {
		t.Fatalf("expected error for bbolt without path")
	}
	if _, err := NewStore("redis", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
