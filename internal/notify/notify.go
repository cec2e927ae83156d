package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"backend/internal/config"
	"backend/internal/models"
)

const (
	queueSize   = 64
	sendTimeout = 10 * time.Second
)

type job struct {
	name string
	send func(ctx context.Context) error
}

// Notifier fans order events out to email, SMS and the Facebook Conversions
// API. Every send runs on a background worker: a slow or failing provider can
// never delay or fail the checkout response. Channels missing their credential
// are skipped with a log line.
type Notifier struct {
	email *resendClient
	sms   *atClient
	capi  *capiClient

	adminEmail string

	jobs chan job
	wg   sync.WaitGroup
	once sync.Once
}

func New(cfg config.Config) *Notifier {
	n := &Notifier{
		adminEmail: cfg.AdminEmail,
		jobs:       make(chan job, queueSize),
	}
	if cfg.ResendAPIKey != "" {
		n.email = newResendClient(cfg.ResendAPIKey, cfg.FromName, cfg.FromEmail)
	}
	if cfg.AfricasTalkingAPIKey != "" {
		n.sms = newATClient(cfg.AfricasTalkingAPIKey, cfg.AfricasTalkingUsername, cfg.AfricasTalkingSenderID)
	}
	if cfg.FacebookPixelID != "" && cfg.FacebookAccessToken != "" {
		n.capi = newCAPIClient(cfg.FacebookPixelID, cfg.FacebookAccessToken)
	}
	return n
}

// Start launches the worker goroutine. It drains jobs until Close is called.
func (n *Notifier) Start() {
	n.wg.Add(1)
	go n.run()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for j := range n.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := j.send(ctx); err != nil {
			log.Printf("[NOTIFY] [ERROR] %s failed: %v", j.name, err)
		} else {
			log.Printf("[NOTIFY] [INFO] %s sent", j.name)
		}
		cancel()
	}
}

// Close stops accepting jobs and waits for the worker to drain the queue.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.jobs) })
	n.wg.Wait()
}

// enqueue never blocks the caller. When the queue is full the job is dropped
// and logged; notification is best-effort by contract.
func (n *Notifier) enqueue(j job) {
	select {
	case n.jobs <- j:
	default:
		log.Printf("[NOTIFY] [WARN] queue full, dropping %s", j.name)
	}
}

// OrderCreated dispatches the full confirmation fan-out for a freshly
// persisted order: admin/customer email, customer SMS and a CAPI purchase
// event deduplicated by a fresh event id.
func (n *Notifier) OrderCreated(order *models.Order) {
	n.NotifyOrder(order)

	if n.capi == nil {
		log.Println("[NOTIFY] [INFO] capi skipped: not configured")
		return
	}
	ev := PurchaseEventFromOrder(order)
	n.enqueue(job{
		name: fmt.Sprintf("capi purchase %s", ev.EventID),
		send: func(ctx context.Context) error { return n.capi.sendPurchase(ctx, ev) },
	})
}

// NotifyOrder sends the order confirmation email and SMS without the
// attribution event. Backs the /notify type=order endpoint.
func (n *Notifier) NotifyOrder(order *models.Order) {
	orderID := order.ID.Hex()

	if n.email == nil {
		log.Println("[NOTIFY] [INFO] email skipped: not configured")
	} else {
		to := []string{}
		if n.adminEmail != "" {
			to = append(to, n.adminEmail)
		}
		if order.CustomerEmail != "" {
			to = append(to, order.CustomerEmail)
		}
		msg := orderEmail(order)
		n.enqueue(job{
			name: fmt.Sprintf("email order %s", orderID),
			send: func(ctx context.Context) error { return n.email.send(ctx, to, msg.subject, msg.html) },
		})
	}

	if n.sms == nil {
		log.Println("[NOTIFY] [INFO] sms skipped: not configured")
	} else if order.CustomerPhone != "" {
		text := orderSMS(order)
		phone := order.CustomerPhone
		n.enqueue(job{
			name: fmt.Sprintf("sms order %s", orderID),
			send: func(ctx context.Context) error { return n.sms.send(ctx, phone, text) },
		})
	}
}

// SendSMS backs the /notify type=sms endpoint.
func (n *Notifier) SendSMS(phone, message string) {
	if n.sms == nil {
		log.Println("[NOTIFY] [INFO] sms skipped: not configured")
		return
	}
	n.enqueue(job{
		name: fmt.Sprintf("sms to %s", phone),
		send: func(ctx context.Context) error { return n.sms.send(ctx, phone, message) },
	})
}

// SendPurchaseEvent backs the /fb-capi relay endpoint.
func (n *Notifier) SendPurchaseEvent(ev PurchaseEvent) {
	if n.capi == nil {
		log.Println("[NOTIFY] [INFO] capi skipped: not configured")
		return
	}
	if ev.EventID == "" {
		ev.EventID = newEventID()
	}
	n.enqueue(job{
		name: fmt.Sprintf("capi purchase %s", ev.EventID),
		send: func(ctx context.Context) error { return n.capi.sendPurchase(ctx, ev) },
	})
}

func (n *Notifier) SMSConfigured() bool { return n.sms != nil }
