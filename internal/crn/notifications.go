package crn

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// SampleEvent describes one recorded trajectory sample.
type SampleEvent struct {
	RunID        string    `json:"run_id"`
	Model        string    `json:"model"`
	Method       Method    `json:"method"`
	Step         int       `json:"step"`
	Time         float64   `json:"time"`
	Event        string    `json:"event,omitempty"`
	Species      int       `json:"species"`
	Compartments int       `json:"compartments"`
	State        []float64 `json:"state"`
	Final        bool      `json:"final,omitempty"`
	Timestamp    int64     `json:"timestamp"`
}

// JSON returns the sample event as JSON bytes
func (se SampleEvent) JSON() ([]byte, error) {
	return json.Marshal(se)
}

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the kind of notifier (e.g. "webhook", "websocket")
	Type() string

	// Notify delivers a sample event. The context carries the delivery
	// deadline.
	Notify(ctx context.Context, event SampleEvent) error

	// Close releases any resources held by the notifier
	Close() error
}

type notificationJob struct {
	Event       SampleEvent
	NotifierIDs []string
}

// NotificationManager routes sample events to registered notifiers on a
// background worker. Delivery is best effort: a full queue drops events
// and failed deliveries are retried with exponential backoff.
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger

	// retry policy, overridable in tests
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
}

// DefaultQueueSize is the number of pending sample events a manager buffers.
const DefaultQueueSize = 1024

// NewNotificationManager creates a manager with one delivery worker.
func NewNotificationManager() *NotificationManager {
	mgr := &NotificationManager{
		notifiers:  make(map[string]Notifier),
		jobs:       make(chan notificationJob, DefaultQueueSize),
		logger:     NewNoOpLogger(),
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
		timeout:    30 * time.Second,
	}
	mgr.startWorkers(1)
	return mgr
}

// SetLogger replaces the manager's logger. A nil logger disables logging.
func (nm *NotificationManager) SetLogger(l Logger) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.logger = orNoOp(l)
}

func (nm *NotificationManager) log() Logger {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.logger
}

// RegisterNotifier registers a notifier with the manager
func (nm *NotificationManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nm.closed {
		return fmt.Errorf("notification manager is closed")
	}
	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	nm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier closes and removes a notifier
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	notifier, exists := nm.notifiers[id]
	delete(nm.notifiers, id)
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

// GetNotifier retrieves a notifier by ID
func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	notifier, exists := nm.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns the IDs of all registered notifiers
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue hands a sample event to the delivery worker without blocking.
// The event is dropped when the queue is full or the manager is closed.
func (nm *NotificationManager) Enqueue(event SampleEvent, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		return
	}
	logger := nm.log()

	nm.mu.RLock()
	defer nm.mu.RUnlock()
	if nm.closed {
		return
	}

	select {
	case nm.jobs <- notificationJob{Event: event, NotifierIDs: notifierIDs}:
	default:
		logger.Warnf("notification queue full, dropping sample: run_id=%s step=%d", event.RunID, event.Step)
	}
}

func (nm *NotificationManager) startWorkers(n int) {
	for range n {
		nm.wg.Add(1)
		go nm.worker()
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		nm.dispatchJob(job)
	}
}

func (nm *NotificationManager) dispatchJob(job notificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), nm.timeout)
	defer cancel()

	for _, id := range job.NotifierIDs {
		nm.notifyWithRetry(ctx, id, job.Event)
	}
}

func (nm *NotificationManager) notifyWithRetry(ctx context.Context, notifierID string, event SampleEvent) {
	notifier, ok := nm.GetNotifier(notifierID)
	if !ok {
		nm.log().Warnf("notification failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	backoff := nm.backoff
	for attempt := 0; attempt <= nm.maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}
		nm.log().Warnf("notification failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)

		if attempt == nm.maxRetries {
			nm.log().Errorf("notification failed after %d attempts: notifier=%s", nm.maxRetries+1, notifierID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Notify delivers an event synchronously to the given notifiers and
// collects every failure.
func (nm *NotificationManager) Notify(ctx context.Context, event SampleEvent, notifierIDs []string) error {
	var errs []error
	for _, id := range notifierIDs {
		notifier, exists := nm.GetNotifier(id)
		if !exists {
			errs = append(errs, fmt.Errorf("notifier %s not found", id))
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s failed: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

// Close drains the queue, stops the worker and closes every notifier.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	var errs []error
	for id, notifier := range nm.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	nm.notifiers = make(map[string]Notifier)
	nm.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}
	return nil
}

// newSampleEvent builds the notification for the latest sample of a run.
func newSampleEvent(r *run, event string, final bool) SampleEvent {
	species, compartments := r.model.state.Dims()
	state := make([]float64, species*compartments)
	copy(state, r.model.state.Raw())
	return SampleEvent{
		RunID:        r.traj.RunID,
		Model:        r.model.Name,
		Method:       r.method,
		Step:         r.step,
		Time:         r.clock,
		Event:        event,
		Species:      species,
		Compartments: compartments,
		State:        state,
		Final:        final,
		Timestamp:    time.Now().Unix(),
	}
}
