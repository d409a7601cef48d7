// Package crash sends best-effort crash reports. Reports that cannot be
// delivered are logged and dropped.
package crash

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"huddle/internal/models"
)

type Submitter interface {
	Submit(ctx context.Context, report models.CrashReport) error
}

// UserSource names the signed-in user, if any. session.Store satisfies it.
type UserSource interface {
	UserID() int64
}

type Device struct {
	AppVersion string
	Platform   string
	Model      string
	OSVersion  string
}

type Reporter struct {
	submitter Submitter
	device    Device
	users     UserSource
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time

	wg sync.WaitGroup
}

func NewReporter(submitter Submitter, device Device, users UserSource, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		submitter: submitter,
		device:    device,
		users:     users,
		logger:    logger.With("component", "crash"),
		timeout:   10 * time.Second,
		now:       time.Now,
	}
}

// Build assembles a report for message and stack.
func (r *Reporter) Build(message, stack string) models.CrashReport {
	report := models.CrashReport{
		ID:          uuid.NewString(),
		AppVersion:  r.device.AppVersion,
		Platform:    r.device.Platform,
		DeviceModel: r.device.Model,
		OSVersion:   r.device.OSVersion,
		Message:     message,
		StackTrace:  stack,
		Timestamp:   models.FormatTimestamp(r.now().UTC()),
	}
	if r.users != nil {
		if id := r.users.UserID(); id > 0 {
			report.UserID = &id
		}
	}
	return report
}

// Capture submits err in the background and returns at once.
func (r *Reporter) Capture(err error) {
	if err == nil {
		return
	}
	r.send(r.Build(err.Error(), string(debug.Stack())))
}

// Recover reports a panic in progress, waits for the report to go out, then
// re-panics. Use it as a deferred call at the top of main.
func (r *Reporter) Recover() {
	v := recover()
	if v == nil {
		return
	}
	r.send(r.Build(fmt.Sprint(v), string(debug.Stack())))
	r.Wait()
	panic(v)
}

// Wait blocks until every captured report was submitted or dropped.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

func (r *Reporter) send(report models.CrashReport) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.submitter.Submit(ctx, report); err != nil {
			r.logger.Warn("crash report not delivered", "report_id", report.ID, "error", err)
			return
		}
		r.logger.Debug("crash report delivered", "report_id", report.ID)
	}()
}
