package services

import (
	"context"
	"log"
	"sync"
	"time"

	"fitChallengeAPI/internal/notification"

	"github.com/google/uuid"
)

type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, n *notification.Notification) error
}

type DeviceTokenLister interface {
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}

// NotificationDispatcher sends pushes from a small worker pool so callers
// never wait on FCM.
type NotificationDispatcher struct {
	tokens       DeviceTokenLister
	pushProvider PushProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewNotificationDispatcher(tokens DeviceTokenLister) *NotificationDispatcher {
	d := &NotificationDispatcher{
		tokens:   tokens,
		workers:  5,
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}

	d.startWorkers()
	return d
}

// SetPushProvider injects the FCM client from main. Call before the
// server starts handling requests.
func (d *NotificationDispatcher) SetPushProvider(provider PushProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.jobQueue:
			d.processJob(n)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(n *notification.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if d.pushProvider == nil {
		log.Printf("Skipping push %s for user %s: no provider configured", n.Type, n.UserID)
		return
	}

	tokens, err := d.tokens.ListDeviceTokens(ctx, n.UserID)
	if err != nil {
		log.Printf("Push: failed to load device tokens for user %s: %v", n.UserID, err)
		return
	}
	if len(tokens) == 0 {
		log.Printf("Skipping push %s for user %s: no devices", n.Type, n.UserID)
		return
	}

	if err := d.pushProvider.SendPush(ctx, tokens, n); err != nil {
		log.Printf("Push failed for user %s: %v", n.UserID, err)
	}
}

// Notify queues n. It gives up when the queue stays full, the request
// context ends, or the dispatcher is stopped.
func (d *NotificationDispatcher) Notify(ctx context.Context, userID uuid.UUID, n *notification.Notification) {
	n.UserID = userID

	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()

	select {
	case d.jobQueue <- n:
	case <-d.stopChan:
		log.Printf("Dropping notification %s: dispatcher stopped", n.ID)
	case <-ctx.Done():
		log.Printf("Dropping notification %s: %v", n.ID, ctx.Err())
	case <-timer.C:
		log.Printf("Failed to queue notification %s: queue full", n.ID)
	}
}

// Stop the dispatcher and wait for the workers. Queued jobs that have not
// been picked up are dropped.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Println("Stopping notification dispatcher...")
		close(d.stopChan)
		d.wg.Wait()
		log.Println("Notification dispatcher stopped")
	})
}

// LogPushProvider stands in for FCM when no credentials are configured.
type LogPushProvider struct{}

func (LogPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, n *notification.Notification) error {
	log.Printf("PUSH (log only): %d devices: %s - %s", len(tokens), n.Title, n.Body)
	return nil
}
