package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Client posts messages to the external mail relay through a small worker
// pool. Enqueue never blocks the caller; a full queue drops the message with
// an error the caller logs.
type Client struct {
	apiURL      string
	apiKey      string
	fromAddress string
	sendTimeout time.Duration
	logger      *slog.Logger
	httpClient  *http.Client

	jobQueue   chan Message
	workerPool chan chan Message
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	APIURL      string
	APIKey      string
	FromAddress string
	SendTimeout time.Duration
	MaxWorkers  int
	QueueSize   int
}

func NewClient(config Config, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	sendTimeout := config.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}

	client := &Client{
		apiURL:      config.APIURL,
		apiKey:      config.APIKey,
		fromAddress: config.FromAddress,
		sendTimeout: sendTimeout,
		logger:      logger,
		httpClient:  &http.Client{Timeout: sendTimeout},

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Message, queueSize),
		workerPool: make(chan chan Message, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	client.startWorkerPool()

	return client
}

func (c *Client) startWorkerPool() {
	c.once.Do(func() {
		for i := 0; i < c.maxWorkers; i++ {
			worker := NewWorker(i, c.workerPool, c.logger)
			worker.Start(c.ctx, &c.wg, c.processMessage)
		}

		go c.dispatch()

		c.logger.Info("mail worker pool started",
			"max_workers", c.maxWorkers,
			"queue_size", cap(c.jobQueue))
	})
}

func (c *Client) dispatch() {
	c.wg.Add(1)
	defer c.wg.Done()

	for {
		select {
		case msg := <-c.jobQueue:
			select {
			case jobChannel := <-c.workerPool:
				select {
				case jobChannel <- msg:
				case <-c.ctx.Done():
					c.logger.Info("mail dispatcher shutting down")
					return
				}
			case <-c.ctx.Done():
				c.logger.Info("mail dispatcher shutting down")
				return
			}
		case <-c.ctx.Done():
			c.logger.Info("mail dispatcher shutting down")
			return
		}
	}
}

func (c *Client) Shutdown() {
	c.logger.Info("shutting down mail client")
	c.cancel()
	c.wg.Wait()
	c.logger.Info("mail client shutdown complete")
}

// Enqueue hands the message to the worker pool without blocking.
func (c *Client) Enqueue(msg Message) error {
	select {
	case c.jobQueue <- msg:
		c.logger.Info("mail queued",
			"to", msg.To,
			"subject", msg.Subject,
			"queue_length", len(c.jobQueue))
		return nil
	default:
		c.logger.Warn("mail queue full, dropping message",
			"to", msg.To,
			"queue_capacity", cap(c.jobQueue))
		return fmt.Errorf("mail queue full")
	}
}

func (c *Client) processMessage(msg Message) {
	ctx, cancel := context.WithTimeout(c.ctx, c.sendTimeout)
	defer cancel()

	if err := c.Send(ctx, msg); err != nil {
		// best effort: log and move on, the data state already committed
		c.logger.Error("mail send failed", "error", err, "to", msg.To, "subject", msg.Subject)
		return
	}

	c.logger.Info("mail sent", "to", msg.To, "subject", msg.Subject)
}

// Send posts a single message to the relay API, bounded by the send timeout.
func (c *Client) Send(ctx context.Context, msg Message) error {
	payload := map[string]string{
		"from":      c.fromAddress,
		"to":        msg.To,
		"subject":   msg.Subject,
		"html_body": msg.HTMLBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail relay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail relay returned status %d", resp.StatusCode)
	}

	return nil
}
