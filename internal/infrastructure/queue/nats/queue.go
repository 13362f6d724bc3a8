package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/cristobalnm/permit-intake/internal/core/domain"
	"github.com/cristobalnm/permit-intake/internal/infrastructure/resilience"
)

const (
	// SubjectRecognize carries recognition jobs from the API to the worker
	// pool via request/reply.
	SubjectRecognize = "intake.recognize"

	// queueGroup load-balances jobs across worker instances.
	queueGroup = "recognizers"

	progressSubjectPrefix = "intake.progress."
)

func progressSubject(itemID string) string {
	return progressSubjectPrefix + itemID
}

// Bus is a NATS connection used both by the API (as the recognition
// requester) and by the worker (as the job server).
type Bus struct {
	conn           *nats.Conn
	executor       *resilience.Executor
	logger         *slog.Logger
	requestTimeout time.Duration
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool

	// RequestTimeout bounds one recognition round trip, engine time included.
	RequestTimeout time.Duration

	Executor *resilience.Executor
	Logger   *slog.Logger
}

func Connect(url string, options Options) (*Bus, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 2 * time.Minute
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("permit-intake"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Bus{
		conn:           conn,
		executor:       options.Executor,
		logger:         logger,
		requestTimeout: requestTimeout,
	}, nil
}

func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

// Recognize sends the job over request/reply and streams progress events
// published under the item's progress subject into onProgress. The reply
// carries either recognized text or the engine's failure message.
func (b *Bus) Recognize(ctx context.Context, job domain.RecognitionJob, onProgress func(float64)) (string, error) {
	if onProgress != nil {
		sub, err := b.conn.Subscribe(progressSubject(job.ItemID), func(msg *nats.Msg) {
			var event domain.RecognitionProgress
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				b.logger.Warn("malformed progress event", "item_id", job.ItemID, "error", err)
				return
			}
			onProgress(event.Progress)
		})
		if err != nil {
			return "", fmt.Errorf("subscribe progress: %w", err)
		}
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				b.logger.Warn("unsubscribe progress", "item_id", job.ItemID, "error", err)
			}
		}()
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode recognition job: %w", err)
	}

	var text string
	call := func(callCtx context.Context) error {
		reqCtx, cancel := context.WithTimeout(callCtx, b.requestTimeout)
		defer cancel()

		msg, err := b.conn.RequestWithContext(reqCtx, SubjectRecognize, payload)
		if err != nil {
			return fmt.Errorf("nats request: %w", err)
		}

		var result domain.RecognitionResult
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			return fmt.Errorf("decode recognition reply: %w", err)
		}
		if result.Error != "" {
			return engineError{message: result.Error}
		}
		text = result.Text
		return nil
	}

	if b.executor != nil {
		err = b.executor.Do(ctx, "nats.recognize", classifyTransportError, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("recognize request", err)
	}
	return text, nil
}

// ServeRecognition consumes jobs from the shared queue group, runs handle for
// each, publishes progress events for the requester, and replies with the
// result. It blocks until ctx is cancelled, then drains the subscription.
func (b *Bus) ServeRecognition(
	ctx context.Context,
	handle func(ctx context.Context, job domain.RecognitionJob, report func(float64)) (string, error),
) error {
	sub, err := b.conn.QueueSubscribe(SubjectRecognize, queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var job domain.RecognitionJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			b.logger.Error("malformed recognition job", "error", err)
			b.reply(msg, domain.RecognitionResult{Error: "malformed job payload"})
			return
		}

		jobCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		report := func(fraction float64) {
			b.publishProgress(job.ItemID, fraction)
		}

		text, err := handle(jobCtx, job, report)
		if err != nil {
			b.logger.Error("recognition job failed",
				"item_id", job.ItemID, "storage_key", job.StorageKey, "error", err)
			b.reply(msg, domain.RecognitionResult{Error: err.Error()})
			return
		}
		b.reply(msg, domain.RecognitionResult{Text: text})
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := b.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (b *Bus) publishProgress(itemID string, fraction float64) {
	event := domain.RecognitionProgress{ItemID: itemID, Progress: fraction}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := b.conn.Publish(progressSubject(itemID), data); err != nil {
		b.logger.Warn("publish progress", "item_id", itemID, "error", err)
	}
}

func (b *Bus) reply(msg *nats.Msg, result domain.RecognitionResult) {
	data, err := json.Marshal(result)
	if err != nil {
		b.logger.Error("encode recognition reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		b.logger.Warn("respond recognition reply", "error", err)
	}
}

// engineError is a failure reported by the recognition engine itself, as
// opposed to a transport failure. It is neither retried nor counted against
// the circuit breaker.
type engineError struct {
	message string
}

func (e engineError) Error() string { return e.message }
