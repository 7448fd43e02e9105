package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// VerificationEvent describes one lifecycle step of a photo verification.
type VerificationEvent struct {
	EventType      EventType     `json:"event_type"`
	Timestamp      time.Time     `json:"timestamp"`
	TaskType       string        `json:"task_type,omitempty"`
	PhotoURL       string        `json:"photo_url,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	Success        bool          `json:"success"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// EventType identifies the lifecycle step.
type EventType string

const (
	VerificationStarted   EventType = "verification_started"
	VerificationCompleted EventType = "verification_completed"
	VerificationFailed    EventType = "verification_failed"
	PhotoFetched          EventType = "photo_fetched"
	PhotoFetchFailed      EventType = "photo_fetch_failed"
)

// Observer receives verification events.
type Observer interface {
	OnEvent(ctx context.Context, event VerificationEvent)
	GetObserverName() string
}

// Subject publishes verification events to subscribed observers.
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event VerificationEvent)
}

// LoggingObserver writes every event to the structured log.
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event VerificationEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"task_type":       event.TaskType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.PhotoURL != "" {
		fields["photo_url"] = event.PhotoURL
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}

	switch event.EventType {
	case VerificationStarted:
		o.logger.WithFields(fields).Info("Photo verification started")
	case VerificationCompleted:
		o.logger.WithFields(fields).Info("Photo verification completed")
	case VerificationFailed:
		o.logger.WithFields(fields).Error("Photo verification failed")
	case PhotoFetched:
		o.logger.WithFields(fields).Debug("Photo fetched successfully")
	case PhotoFetchFailed:
		o.logger.WithFields(fields).Error("Photo fetch failed")
	default:
		o.logger.WithFields(fields).Info("Verification event occurred")
	}
}

func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver keeps running verification counters.
type MetricsObserver struct {
	mu                      sync.RWMutex
	totalVerifications      int64
	successfulVerifications int64
	failedVerifications     int64
	totalProcessingTime     time.Duration
}

func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (o *MetricsObserver) OnEvent(ctx context.Context, event VerificationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case VerificationStarted:
		o.totalVerifications++
	case VerificationCompleted:
		o.successfulVerifications++
		o.totalProcessingTime += event.ProcessingTime
	case VerificationFailed:
		o.failedVerifications++
	}
}

func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a snapshot of the counters, suitable for the health
// endpoint.
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulVerifications > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulVerifications)
	}

	return map[string]interface{}{
		"total_verifications":      o.totalVerifications,
		"successful_verifications": o.successfulVerifications,
		"failed_verifications":     o.failedVerifications,
		"total_processing_time":    o.totalProcessingTime,
		"avg_processing_time":      avgProcessingTime,
	}
}

// EventPublisher fans events out to all subscribers.
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewEventPublisher() Subject {
	return &EventPublisher{observers: make([]Observer, 0)}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every subscriber on its own
// goroutine. A panicking observer is logged and never takes down the
// request that triggered it.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event VerificationEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
