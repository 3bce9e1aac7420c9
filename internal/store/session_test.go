package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionRepository_StartEnd(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{ScreenWidth: 1920, ScreenHeight: 1080}
	if err := repo.Start(sess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Errorf("Start() assigned invalid id %q: %v", sess.ID, err)
	}
	if sess.StartedAt.IsZero() {
		t.Error("Start() should set StartedAt")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt != nil {
		t.Error("open session should have no end time")
	}
	if got.ScreenWidth != 1920 || got.ScreenHeight != 1080 {
		t.Errorf("screen = %dx%d, want 1920x1080", got.ScreenWidth, got.ScreenHeight)
	}

	if err := repo.End(sess.ID, "fail-safe", 42); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	got, err = repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.EndedAt == nil {
		t.Fatal("ended session should have an end time")
	}
	if got.ExitReason != "fail-safe" || got.Frames != 42 {
		t.Errorf("got reason %q frames %d, want fail-safe 42", got.ExitReason, got.Frames)
	}
}

func TestSessionRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).Sessions()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := repo.End("missing", "quit", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("End() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	repo := newTestStore(t).Sessions()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		sess := &Session{StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Start(sess); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		ids = append(ids, sess.ID)
	}

	sessions, err := repo.List(2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List(2) returned %d sessions", len(sessions))
	}
	if sessions[0].ID != ids[2] || sessions[1].ID != ids[1] {
		t.Errorf("List() order = [%s %s], want newest first", sessions[0].ID, sessions[1].ID)
	}
}
