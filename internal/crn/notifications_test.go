package crn

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	id       string
	mu       sync.Mutex
	events   []SampleEvent
	failures int
	closed   bool
}

func (m *mockNotifier) ID() string   { return m.id }
func (m *mockNotifier) Type() string { return "mock" }

func (m *mockNotifier) Notify(ctx context.Context, event SampleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("transient failure")
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockNotifier) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockNotifier) received() []SampleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SampleEvent(nil), m.events...)
}

func TestNotificationManager_Register(t *testing.T) {
	mgr := NewNotificationManager()
	defer mgr.Close()

	n := &mockNotifier{id: "n1"}
	require.NoError(t, mgr.RegisterNotifier(n))
	assert.Error(t, mgr.RegisterNotifier(n), "duplicate ID")
	assert.Error(t, mgr.RegisterNotifier(nil))
	assert.Error(t, mgr.RegisterNotifier(&mockNotifier{}))

	got, ok := mgr.GetNotifier("n1")
	assert.True(t, ok)
	assert.Same(t, n, got)
	assert.Equal(t, []string{"n1"}, mgr.ListNotifiers())

	require.NoError(t, mgr.UnregisterNotifier("n1"))
	assert.True(t, n.closed)
	assert.Error(t, mgr.UnregisterNotifier("n1"))
}

func TestNotificationManager_RetriesTransientFailures(t *testing.T) {
	mgr := NewNotificationManager()
	mgr.backoff = time.Millisecond
	n := &mockNotifier{id: "flaky", failures: 2}
	require.NoError(t, mgr.RegisterNotifier(n))

	mgr.Enqueue(SampleEvent{RunID: "r", Step: 1}, []string{"flaky"})
	require.NoError(t, mgr.Close())

	got := n.received()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Step)
	assert.True(t, n.closed)
}

func TestNotificationManager_NotifySync(t *testing.T) {
	mgr := NewNotificationManager()
	defer mgr.Close()
	n := &mockNotifier{id: "n"}
	require.NoError(t, mgr.RegisterNotifier(n))

	require.NoError(t, mgr.Notify(context.Background(), SampleEvent{Step: 2}, []string{"n"}))
	assert.Len(t, n.received(), 1)
	assert.Error(t, mgr.Notify(context.Background(), SampleEvent{}, []string{"missing"}))
}

func TestNotificationManager_EnqueueAfterClose(t *testing.T) {
	mgr := NewNotificationManager()
	require.NoError(t, mgr.Close())
	mgr.Enqueue(SampleEvent{}, []string{"any"})
	require.NoError(t, mgr.Close())
	assert.Error(t, mgr.RegisterNotifier(&mockNotifier{id: "late"}))
}

// blockingNotifier holds the delivery worker until release is closed.
type blockingNotifier struct {
	mockNotifier
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingNotifier) Notify(ctx context.Context, event SampleEvent) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.mockNotifier.Notify(ctx, event)
}

func TestNotificationManager_FullQueueDropsAndWarns(t *testing.T) {
	mgr := NewNotificationManager()
	log := &recordingLogger{}
	mgr.SetLogger(log)
	n := &blockingNotifier{
		mockNotifier: mockNotifier{id: "slow"},
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	require.NoError(t, mgr.RegisterNotifier(n))

	ids := []string{"slow"}
	mgr.Enqueue(SampleEvent{Step: 0}, ids)
	<-n.started
	for i := 1; i <= DefaultQueueSize+5; i++ {
		mgr.Enqueue(SampleEvent{Step: i}, ids)
	}
	close(n.release)
	require.NoError(t, mgr.Close())

	assert.Len(t, n.received(), DefaultQueueSize+1)
	log.mu.Lock()
	defer log.mu.Unlock()
	assert.Len(t, log.warnings, 5)
}

func TestSimulator_StreamsSamples(t *testing.T) {
	mgr := NewNotificationManager()
	n := &mockNotifier{id: "stream"}
	require.NoError(t, mgr.RegisterNotifier(n))

	sim := NewSimulator()
	sim.SetNotificationManager(mgr, "stream")
	m := birthDeath(t, 21)
	tr, err := sim.Gillespie(m, 1)
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	got := n.received()
	require.Len(t, got, tr.Len())
	assert.Equal(t, 0.0, got[0].Time)
	last := got[len(got)-1]
	assert.True(t, last.Final)
	assert.Equal(t, 1.0, last.Time)
	assert.Equal(t, tr.RunID, last.RunID)
	assert.Equal(t, "birth-death", last.Model)
	assert.Equal(t, []float64{m.State().At(0, 0)}, last.State)
	for i := 1; i < len(got)-1; i++ {
		assert.NotEmpty(t, got[i].Event)
	}

	data, err := last.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method":"gillespie"`)
}
