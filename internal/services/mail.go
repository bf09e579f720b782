package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OTPMail is the job a mail worker turns into a verification email.
type OTPMail struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	ReferenceCode string `json:"reference_code"`
}

// MailPublisher queues mail jobs on RabbitMQ. Delivery itself belongs to the
// worker consuming the queue. One connection and channel are shared by all
// callers; they are dialed on first use and redialed after the broker drops them.
type MailPublisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewMailPublisher constructs MailPublisher. An empty url disables publishing.
func NewMailPublisher(url, queue string) *MailPublisher {
	return &MailPublisher{url: url, queue: queue}
}

// SendOTP publishes a persistent OTP mail job.
func (p *MailPublisher) SendOTP(ctx context.Context, mail OTPMail) error {
	if p.url == "" {
		log.Printf("[Mail] AMQP_URL not configured, skipping OTP mail for %s", mail.Email)
		return nil
	}

	body, err := json.Marshal(mail)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		log.Printf("[Mail] publish failed: %v", err)
		p.reset()
		return err
	}

	return nil
}

// Close releases the broker connection.
func (p *MailPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

// channel returns the open channel, dialing when needed. Callers hold p.mu.
func (p *MailPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("[Mail] dial failed: %v", err)
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("[Mail] channel open failed: %v", err)
		_ = conn.Close()
		return nil, err
	}

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		log.Printf("[Mail] queue declare failed: %v", err)
		_ = conn.Close()
		return nil, err
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *MailPublisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
