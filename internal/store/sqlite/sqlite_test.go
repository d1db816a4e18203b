package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lu-zhengda/smartmail/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_CreatesTables(t *testing.T) {
	db := newTestDB(t)

	var tables []string
	err := db.db.SelectContext(context.Background(), &tables,
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		t.Fatalf("query sqlite_master error: %v", err)
	}

	expected := []string{"profiles", "reply_cache", "tracked_jobs"}
	for _, exp := range expected {
		found := false
		for _, tbl := range tables {
			if tbl == exp {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected table %q not found in %v", exp, tables)
		}
	}
}

func TestSaveAndGetProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SaveProfile(ctx, &store.Profile{Name: "local", BaseURL: "http://localhost:8000/api/v1"}); err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}
	if err := db.SetProfileUser(ctx, "local", "a@example.com", "admin"); err != nil {
		t.Fatalf("SetProfileUser() error: %v", err)
	}
	// Saving again only changes the URL.
	if err := db.SaveProfile(ctx, &store.Profile{Name: "local", BaseURL: "http://other/api/v1"}); err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}

	got, err := db.GetProfile(ctx, "local")
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if got.BaseURL != "http://other/api/v1" {
		t.Errorf("base_url = %q, want %q", got.BaseURL, "http://other/api/v1")
	}
	if got.UserEmail != "a@example.com" || got.Role != "admin" {
		t.Errorf("user = %q/%q, want a@example.com/admin", got.UserEmail, got.Role)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestSetDefaultProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	db.SaveProfile(ctx, &store.Profile{Name: "a", BaseURL: "http://a"})
	db.SaveProfile(ctx, &store.Profile{Name: "b", BaseURL: "http://b"})

	if err := db.SetDefaultProfile(ctx, "a"); err != nil {
		t.Fatalf("SetDefaultProfile() error: %v", err)
	}
	if err := db.SetDefaultProfile(ctx, "b"); err != nil {
		t.Fatalf("SetDefaultProfile() error: %v", err)
	}
	profiles, _ := db.ListProfiles(ctx)
	for _, p := range profiles {
		if p.IsDefault != (p.Name == "b") {
			t.Errorf("profile %s is_default = %v", p.Name, p.IsDefault)
		}
	}
	if err := db.SetDefaultProfile(ctx, "zzz"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetDefaultProfile(zzz) error = %v, want ErrNotFound", err)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetProfile(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteProfile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	db.SaveProfile(ctx, &store.Profile{Name: "a", BaseURL: "http://a"})
	db.SaveProfile(ctx, &store.Profile{Name: "b", BaseURL: "http://b"})
	db.TrackJob(ctx, &store.TrackedJob{JobID: 1, Profile: "a", Kind: "send_email"})
	db.PutReply(ctx, &store.CachedReply{Key: "k", Profile: "a", Text: "hi"})

	if err := db.DeleteProfile(ctx, "a"); err != nil {
		t.Fatalf("DeleteProfile() error: %v", err)
	}
	profiles, err := db.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "b" {
		t.Errorf("profiles = %v, want [b]", profiles)
	}
	if jobs, _ := db.ListTrackedJobs(ctx, "a", 0); len(jobs) != 0 {
		t.Errorf("got %d tracked jobs after delete, want 0", len(jobs))
	}
	if _, err := db.GetReply(ctx, "a", "k"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetReply() error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteProfile(ctx, "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteProfile() error = %v, want ErrNotFound", err)
	}
}

func TestTrackAndResolveJobs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Minute)

	for i, kind := range []string{"generate_draft", "send_email", "sync_email"} {
		j := &store.TrackedJob{
			JobID:       int64(i + 1),
			Profile:     "p",
			Kind:        kind,
			Subject:     "email",
			SubmittedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.TrackJob(ctx, j); err != nil {
			t.Fatalf("TrackJob() error: %v", err)
		}
	}

	if err := db.ResolveJob(ctx, "p", 2, "failed", "smtp down"); err != nil {
		t.Fatalf("ResolveJob() error: %v", err)
	}
	if err := db.ResolveJob(ctx, "p", 3, "processing", ""); err != nil {
		t.Fatalf("ResolveJob() error: %v", err)
	}

	pending, err := db.PendingJobs(ctx, "p")
	if err != nil {
		t.Fatalf("PendingJobs() error: %v", err)
	}
	if len(pending) != 2 || pending[0].JobID != 1 || pending[1].JobID != 3 {
		t.Errorf("pending = %+v, want jobs 1 and 3", pending)
	}

	all, err := db.ListTrackedJobs(ctx, "p", 10)
	if err != nil {
		t.Fatalf("ListTrackedJobs() error: %v", err)
	}
	if len(all) != 3 || all[0].JobID != 3 {
		t.Fatalf("ListTrackedJobs() = %+v, want newest first", all)
	}
	failed := all[1]
	if failed.Status != "failed" || failed.Error != "smtp down" || failed.FinishedAt == nil {
		t.Errorf("failed job = %+v", failed)
	}
	if all[0].FinishedAt != nil {
		t.Errorf("processing job has finished_at %v", all[0].FinishedAt)
	}

	if err := db.ResolveJob(ctx, "other", 1, "completed", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ResolveJob() on other profile error = %v, want ErrNotFound", err)
	}
}

func TestReplyCache(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-time.Hour)

	db.PutReply(ctx, &store.CachedReply{Key: "m1-friendly-", Profile: "p", Text: "old", Tone: "friendly", StoredAt: old})
	db.PutReply(ctx, &store.CachedReply{Key: "m2-urgent-", Profile: "p", Text: "new", Tone: "urgent"})
	db.PutReply(ctx, &store.CachedReply{Key: "m2-urgent-", Profile: "q", Text: "other profile"})

	got, err := db.GetReply(ctx, "p", "m2-urgent-")
	if err != nil {
		t.Fatalf("GetReply() error: %v", err)
	}
	if got.Text != "new" || got.Tone != "urgent" {
		t.Errorf("GetReply() = %+v", got)
	}

	n, err := db.PruneReplies(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("PruneReplies() error: %v", err)
	}
	if n != 1 {
		t.Errorf("PruneReplies() removed %d, want 1", n)
	}

	if err := db.DeleteReply(ctx, "p", "m2-urgent-"); err != nil {
		t.Fatalf("DeleteReply() error: %v", err)
	}
	if _, err := db.GetReply(ctx, "p", "m2-urgent-"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetReply() after delete error = %v, want ErrNotFound", err)
	}

	if err := db.PurgeReplies(ctx, "q"); err != nil {
		t.Fatalf("PurgeReplies() error: %v", err)
	}
	if _, err := db.GetReply(ctx, "q", "m2-urgent-"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetReply() after purge error = %v, want ErrNotFound", err)
	}
}
