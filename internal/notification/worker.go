package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"radio-schedule-backend/internal/model"
)

// ChangeKind describes what happened to a program's schedule.
type ChangeKind string

const (
	ChangeUpdated   ChangeKind = "updated"
	ChangeCancelled ChangeKind = "cancelled"
	ChangeReplaced  ChangeKind = "replaced"
)

// Change is one schedule-change notice to fan out to subscribers.
type Change struct {
	ProgramID int64
	Kind      ChangeKind
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending schedule-change
// notifications to program subscribers.
type WorkerPool struct {
	size    int
	jobs    chan Change
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Change, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case change := <-wp.jobs:
			wp.notifySubscribers(ctx, change)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a schedule change for fan-out.
func (wp *WorkerPool) Dispatch(change Change) {
	wp.jobs <- change
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Change {
	return wp.jobs
}

// notifySubscribers fetches the program's subscribers and pushes the notice.
func (wp *WorkerPool) notifySubscribers(ctx context.Context, change Change) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_program_mapping spm ON spm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("spm.program_id = ?", change.ProgramID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for program %d: %v", change.ProgramID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	var program model.Program
	label := fmt.Sprintf("program %d", change.ProgramID)
	if err := wp.db.WithContext(ctx).
		Select("title").
		First(&program, change.ProgramID).Error; err != nil {
		log.Printf("Error fetching program %d: %v", change.ProgramID, err)
	} else if program.Title != "" {
		label = program.Title
	}

	var message string
	switch change.Kind {
	case ChangeCancelled:
		message = fmt.Sprintf("%s: a broadcast was cancelled.", label)
	case ChangeReplaced:
		message = fmt.Sprintf("%s: a broadcast was replaced by a special.", label)
	default:
		message = fmt.Sprintf("%s: the broadcast schedule changed.", label)
	}

	log.Printf("Sending %d notifications for program %d", len(subscriptions), change.ProgramID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions.
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
