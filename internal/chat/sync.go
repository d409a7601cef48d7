// Package chat keeps a client-side view of one activity's group chat in step
// with the server by polling. There is no push channel for chat.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"huddle/internal/api"
	"huddle/internal/constants"
	"huddle/internal/models"
)

var ErrClosed = errors.New("chat synchronizer is closed")

type State int

const (
	Idle State = iota
	Loaded
	Polling
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Polling:
		return "polling"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Listener receives the whole view after every change. It runs on the
// goroutine that made the change, with no lock held, so it may call Load,
// Poll, Send or Delete. Deliveries from different goroutines can overlap; a
// snapshot older than one already delivered is skipped. A listener must not
// call Close.
type Listener func([]models.ActivityMessage)

type Config struct {
	ActivityID   int64
	UserID       int64
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Synchronizer owns the ordered message view of one conversation. The view
// only grows by appending; the high-water-mark is the createdAt of the newest
// message seen and never moves backwards. A message whose id is already in the
// view is not appended again, so a sent message that a concurrent poll also
// returns shows up once. Distinct messages sharing the mark's timestamp are
// kept.
type Synchronizer struct {
	messages   api.MessagesAPI
	activityID int64
	userID     int64
	interval   time.Duration
	logger     *slog.Logger

	polls singleflight.Group

	// life is cancelled by Close and bounds every request made on behalf of
	// this conversation.
	life     context.Context
	stopLife context.CancelFunc
	loopDone chan struct{}

	mu        sync.Mutex
	state     State
	view      []models.ActivityMessage
	mark      string
	listeners []Listener

	// seq numbers snapshots as they are taken; delivered is the newest one
	// handed to listeners. Both are guarded by mu.
	seq       uint64
	delivered uint64
	// deliveries counts listener runs in progress so Close can wait for them.
	deliveries sync.WaitGroup
}

func New(messages api.MessagesAPI, cfg Config) *Synchronizer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constants.DefaultChatPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	life, stop := context.WithCancel(context.Background())
	return &Synchronizer{
		messages:   messages,
		activityID: cfg.ActivityID,
		userID:     cfg.UserID,
		interval:   cfg.PollInterval,
		logger:     cfg.Logger.With("component", "chat", "activity_id", cfg.ActivityID),
		life:       life,
		stopLife:   stop,
	}
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the current view.
func (s *Synchronizer) Messages() []models.ActivityMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ActivityMessage(nil), s.view...)
}

// HighWaterMark returns the createdAt of the newest message in the view, or ""
// before anything was seen.
func (s *Synchronizer) HighWaterMark() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mark
}

func (s *Synchronizer) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Load replaces the view with a full fetch of the conversation.
func (s *Synchronizer) Load(ctx context.Context) error {
	ctx, cancel, err := s.bind(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	start := time.Now()
	msgs, err := s.messages.List(ctx, s.activityID)
	recordPoll("full", start)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}

	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.view = append([]models.ActivityMessage(nil), msgs...)
	s.mark = ""
	if n := len(msgs); n > 0 {
		s.mark = msgs[n-1].CreatedAt
	}
	if s.state == Idle {
		s.state = Loaded
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Start begins polling every interval until Close. Calling Start again while
// polling is a no-op.
func (s *Synchronizer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Closed:
		return ErrClosed
	case Polling:
		return nil
	}
	s.state = Polling
	s.loopDone = make(chan struct{})
	go s.run(s.loopDone)
	return nil
}

func (s *Synchronizer) run(done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case <-s.life.Done():
			return
		case <-ticker.C:
		}

		if err := s.Poll(s.life); err != nil {
			if errors.Is(err, ErrClosed) || s.life.Err() != nil {
				return
			}
			recordPollFailure()
			s.logger.Debug("chat poll failed", "error", err)
		}
	}
}

// Poll fetches messages newer than the high-water-mark and appends them. A
// Poll issued while another is in flight waits for that one instead of
// sending a second request.
func (s *Synchronizer) Poll(ctx context.Context) error {
	v, err, _ := s.polls.Do("poll", func() (any, error) {
		return s.poll(ctx)
	})
	if err != nil {
		return err
	}
	// Listeners run outside the shared call so one that polls again starts a
	// fresh request instead of waiting on itself. Callers that joined the
	// same call carry the same snapshot and only the first delivers it.
	if snap := v.(*snapshot); snap != nil {
		s.notify(snap)
	}
	return nil
}

// poll returns the snapshot to deliver, or nil when nothing was appended.
func (s *Synchronizer) poll(ctx context.Context) (*snapshot, error) {
	ctx, cancel, err := s.bind(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	s.mu.Lock()
	mark := s.mark
	s.mu.Unlock()

	var (
		msgs  []models.ActivityMessage
		start = time.Now()
	)
	if mark == "" {
		msgs, err = s.messages.List(ctx, s.activityID)
		recordPoll("full", start)
	} else {
		msgs, err = s.messages.ListSince(ctx, s.activityID, mark)
		recordPoll("since", start)
	}
	if err != nil {
		return nil, fmt.Errorf("polling messages: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		return nil, ErrClosed
	}
	added := s.appendLocked(msgs)
	recordReceived(added)
	if added == 0 {
		return nil, nil
	}
	return s.snapshotLocked(), nil
}

// Send posts text as the configured user. On success the returned message is
// appended; on failure the view is untouched.
func (s *Synchronizer) Send(ctx context.Context, text string) (*models.ActivityMessage, error) {
	ctx, cancel, err := s.bind(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	msg, err := s.messages.Send(ctx, s.userID, s.activityID, models.SendMessageRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return msg, nil
	}
	added := s.appendLocked([]models.ActivityMessage{*msg})
	var snap *snapshot
	if added > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if snap != nil {
		s.notify(snap)
	}
	return msg, nil
}

// Delete soft-deletes a message and reloads the conversation so the
// placeholder replaces it.
func (s *Synchronizer) Delete(ctx context.Context, messageID int64) error {
	boundCtx, cancel, err := s.bind(ctx)
	if err != nil {
		return err
	}
	err = s.messages.Delete(boundCtx, s.userID, messageID)
	cancel()
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return s.Load(ctx)
}

// Close stops polling and waits for the loop to exit. After Close returns no
// request is started, no listener runs and late results are discarded.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return
	}
	s.state = Closed
	done := s.loopDone
	s.mu.Unlock()

	s.stopLife()
	if done != nil {
		<-done
	}

	// Deliveries only start while open, so after the state change the
	// count can only fall.
	s.deliveries.Wait()

	s.mu.Lock()
	s.listeners = nil
	s.mu.Unlock()
}

// appendLocked adds msgs in server order. Messages older than the mark are
// dropped and ones already in the view (same id) are skipped; equal
// timestamps are kept. Returns the number appended.
func (s *Synchronizer) appendLocked(msgs []models.ActivityMessage) int {
	seen := make(map[int64]bool, len(s.view))
	for _, m := range s.view {
		seen[m.ID] = true
	}

	added := 0
	for _, m := range msgs {
		if s.mark != "" && m.CreatedAt != "" && models.CompareTimestamps(m.CreatedAt, s.mark) < 0 {
			continue
		}
		if m.ID != 0 && seen[m.ID] {
			continue
		}
		s.view = append(s.view, m)
		seen[m.ID] = true
		added++
		if m.CreatedAt != "" && (s.mark == "" || models.CompareTimestamps(m.CreatedAt, s.mark) > 0) {
			s.mark = m.CreatedAt
		}
	}
	return added
}

type snapshot struct {
	seq  uint64
	view []models.ActivityMessage
}

func (s *Synchronizer) snapshotLocked() *snapshot {
	s.seq++
	return &snapshot{seq: s.seq, view: append([]models.ActivityMessage(nil), s.view...)}
}

// notify hands snap to the listeners unless the synchronizer is closed or a
// newer snapshot already went out. No lock is held while listeners run.
func (s *Synchronizer) notify(snap *snapshot) {
	s.mu.Lock()
	if s.state == Closed || snap.seq <= s.delivered {
		s.mu.Unlock()
		return
	}
	s.delivered = snap.seq
	listeners := append([]Listener(nil), s.listeners...)
	s.deliveries.Add(1)
	s.mu.Unlock()
	defer s.deliveries.Done()

	for _, l := range listeners {
		l(snap.view)
	}
}

// bind derives a request context that is also cancelled by Close.
func (s *Synchronizer) bind(ctx context.Context) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	closed := s.state == Closed
	s.mu.Unlock()
	if closed {
		return nil, nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}, nil
}
