package crash

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"huddle/internal/models"
)

type recordingSubmitter struct {
	mu      sync.Mutex
	reports []models.CrashReport
	err     error
	release chan struct{}
}

func (s *recordingSubmitter) Submit(ctx context.Context, report models.CrashReport) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return s.err
}

type staticUser int64

func (u staticUser) UserID() int64 { return int64(u) }

func newTestReporter(sub Submitter, user int64) *Reporter {
	r := NewReporter(sub, Device{AppVersion: "1.4.0", Platform: "android", Model: "Pixel 8", OSVersion: "14"}, staticUser(user), nil)
	r.now = func() time.Time { return time.Date(2024, 10, 25, 18, 30, 0, 0, time.UTC) }
	return r
}

func TestBuild(t *testing.T) {
	r := newTestReporter(&recordingSubmitter{}, 7)

	report := r.Build("index out of range", "goroutine 1 [running]")
	if report.Timestamp != "2024-10-25T18:30:00" {
		t.Fatalf("Timestamp = %q", report.Timestamp)
	}
	if report.UserID == nil || *report.UserID != 7 {
		t.Fatalf("UserID = %v, want 7", report.UserID)
	}
	if report.AppVersion != "1.4.0" || report.DeviceModel != "Pixel 8" || report.ID == "" {
		t.Fatalf("Build() = %+v", report)
	}

	anonymous := newTestReporter(&recordingSubmitter{}, 0).Build("x", "")
	if anonymous.UserID != nil {
		t.Fatalf("UserID = %v, want nil when signed out", *anonymous.UserID)
	}
}

func TestCaptureDoesNotBlock(t *testing.T) {
	sub := &recordingSubmitter{release: make(chan struct{})}
	r := newTestReporter(sub, 7)

	done := make(chan struct{})
	go func() {
		r.Capture(errors.New("database is locked"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Capture() blocked on the submitter")
	}

	close(sub.release)
	r.Wait()
	if len(sub.reports) != 1 || sub.reports[0].Message != "database is locked" {
		t.Fatalf("reports = %+v", sub.reports)
	}
}

func TestCaptureSwallowsSubmitFailure(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("offline")}
	r := newTestReporter(sub, 7)

	r.Capture(errors.New("boom"))
	r.Capture(nil)
	r.Wait()

	if len(sub.reports) != 1 {
		t.Fatalf("Submit() called %d times, want 1", len(sub.reports))
	}
}

func TestRecoverReportsAndRepanics(t *testing.T) {
	sub := &recordingSubmitter{}
	r := newTestReporter(sub, 0)

	defer func() {
		if v := recover(); v != "kaboom" {
			t.Fatalf("recover() = %v, want re-panic with kaboom", v)
		}
		if len(sub.reports) != 1 || sub.reports[0].Message != "kaboom" {
			t.Fatalf("reports = %+v", sub.reports)
		}
	}()

	func() {
		defer r.Recover()
		panic("kaboom")
	}()
}
