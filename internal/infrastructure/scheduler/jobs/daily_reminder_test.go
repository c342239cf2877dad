package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-hub/orbit-student-hub/internal/domain/shared"
	"github.com/orbit-hub/orbit-student-hub/internal/domain/task"
)

type stubTaskSource struct {
	tasks []*task.Task
	err   error
}

func (s stubTaskSource) ListDueOn(_ context.Context, _ time.Time) ([]*task.Task, error) {
	return s.tasks, s.err
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func dueTask(t *testing.T, id, userID, title string) *task.Task {
	t.Helper()
	due := time.Now()
	created, err := task.NewTask(task.NewTaskParams{ID: id, UserID: userID, Title: title, DueDate: &due})
	require.NoError(t, err)
	return created
}

func TestDailyReminder_OneNotificationPerUser(t *testing.T) {
	source := stubTaskSource{tasks: []*task.Task{
		dueTask(t, "t1", "user-a", "Kumpulkan esai"),
		dueTask(t, "t2", "user-a", "Latihan kalkulus"),
		dueTask(t, "t3", "user-b", "Baca bab 4"),
	}}
	publisher := &capturingPublisher{}
	job := NewDailyReminderJob(source, publisher, nil)

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, publisher.events, 2)
	recipients := map[string]bool{}
	for _, e := range publisher.events {
		assert.Equal(t, shared.EventNotificationRaised, e.EventType())
		recipients[e.AggregateID()] = true
	}
	assert.True(t, recipients["user-a"])
	assert.True(t, recipients["user-b"])
}

func TestDailyReminder_SingleTaskNamesIt(t *testing.T) {
	source := stubTaskSource{tasks: []*task.Task{
		dueTask(t, "t1", "user-a", "Kumpulkan esai"),
	}}
	publisher := &capturingPublisher{}
	job := NewDailyReminderJob(source, publisher, nil)

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, publisher.events, 1)
	payload := publisher.events[0].Payload()
	assert.Contains(t, payload["message"], "Kumpulkan esai")
}

func TestDailyReminder_NothingDue(t *testing.T) {
	publisher := &capturingPublisher{}
	job := NewDailyReminderJob(stubTaskSource{}, publisher, nil)

	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, publisher.events)
}

func TestDailyReminder_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	job := NewDailyReminderJob(stubTaskSource{err: boom}, &capturingPublisher{}, nil)

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
