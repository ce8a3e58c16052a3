package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"wear-and-tear-backend/internal/metrics"
	"wear-and-tear-backend/internal/model"
	"wear-and-tear-backend/internal/store"
	"wear-and-tear-backend/internal/wear"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Message is the JSON payload delivered to the browser's service worker.
type Message struct {
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ItemID    string     `json:"itemId"`
	ConfigID  string     `json:"configId"`
	Level     wear.Level `json:"level"`
	Remaining float64    `json:"remaining"`
}

// WorkerPool manages a pool of workers for sending wear alerts.
type WorkerPool struct {
	size    int
	jobs    chan store.Alert
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	tr      wear.Translator
	metrics *metrics.Metrics
}

// NewWorkerPool creates a new worker pool. tr localizes the message titles
// and may be nil.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, tr wear.Translator, m *metrics.Metrics) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan store.Alert, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		tr:      tr,
		metrics: m,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			log.Printf("Worker %d processing alert for item %s (%s)", id, alert.ItemID, alert.Level)
			wp.sendNotificationsForAlert(ctx, alert)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an alert. It blocks while the queue is full and gives up
// once ctx is done, reporting whether the alert was queued.
func (wp *WorkerPool) Dispatch(ctx context.Context, alert store.Alert) bool {
	select {
	case wp.jobs <- alert:
		return true
	case <-ctx.Done():
		log.Printf("Dropping alert for item %s: %v", alert.ItemID, ctx.Err())
		return false
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan store.Alert {
	return wp.jobs
}

// sendNotificationsForAlert notifies every subscription following the alert's config.
func (wp *WorkerPool) sendNotificationsForAlert(ctx context.Context, alert store.Alert) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_configs sc ON sc.endpoint = push_subscriptions.endpoint").
		Where("sc.config_id = ?", alert.ConfigID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for config %s: %v", alert.ConfigID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(wp.message(alert))
	if err != nil {
		log.Printf("Error encoding alert for item %s: %v", alert.ItemID, err)
		return
	}

	log.Printf("Sending %d notifications for item %s", len(subscriptions), alert.ItemID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) message(alert store.Alert) Message {
	key := "__TEXT__.ALERT_WARNING"
	if alert.Level == wear.LevelExceeded {
		key = "__TEXT__.ALERT_EXCEEDED"
	}
	title := key
	if wp.tr != nil {
		title = wp.tr.Translate(key)
	}

	name := alert.Name
	if name == "" {
		name = alert.ItemID
	}
	return Message{
		Title:     title,
		Body:      fmt.Sprintf("%s: %.2f used, %.2f remaining", name, alert.Usage, alert.Remaining),
		ItemID:    alert.ItemID,
		ConfigID:  alert.ConfigID,
		Level:     alert.Level,
		Remaining: alert.Remaining,
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
		wp.metrics.Notification("error")
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.metrics.Notification("expired")
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return
	}
	wp.metrics.Notification("sent")
}
