// Package telegram отправляет оператору алерты о неудачных запусках задач.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"crontab/internal/crontab"
	"crontab/pkg/retry"
)

// Sender - часть *bot.Bot, нужная алертеру.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Alerter реализует scheduler.Reporter: на Failed шлет сообщение в чат,
// остальные исходы игнорирует (кроме восстановления после падения).
type Alerter struct {
	sender   Sender
	chatID   int64
	throttle *Throttle
	retry    retry.Config
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	failed map[string]bool
}

// AlerterOption настраивает Alerter.
type AlerterOption func(*Alerter)

// WithThrottle задает минимальный интервал между алертами одной задачи.
func WithThrottle(every time.Duration) AlerterOption {
	return func(a *Alerter) { a.throttle = NewThrottle(every) }
}

// WithRetry задает политику повторов отправки.
func WithRetry(cfg retry.Config) AlerterOption {
	return func(a *Alerter) { a.retry = cfg }
}

// WithLogger задает логгер.
func WithLogger(l *slog.Logger) AlerterOption {
	return func(a *Alerter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAlerter создает алертер, пишущий в chatID.
func NewAlerter(sender Sender, chatID int64, opts ...AlerterOption) *Alerter {
	a := &Alerter{
		sender:   sender,
		chatID:   chatID,
		throttle: NewThrottle(15 * time.Minute),
		retry:    retry.DefaultConfig(),
		timeout:  30 * time.Second,
		logger:   slog.Default(),
		failed:   make(map[string]bool),
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With("component", "telegram")
	return a
}

// Report реализует scheduler.Reporter. Ошибки отправки только логируются:
// недоступность Telegram не должна влиять на цикл.
func (a *Alerter) Report(ctx context.Context, o crontab.Outcome) {
	name := o.Job.Name()
	switch o.Status {
	case crontab.StatusFailed:
		a.setFailed(name, true)
		if !a.throttle.Allow(name) {
			a.logger.Debug("alert throttled", slog.String("job", name))
			return
		}
		a.send(ctx, name, FormatFailure(o))
	case crontab.StatusExecuted:
		if !a.setFailed(name, false) {
			return
		}
		a.throttle.Reset(name)
		a.send(ctx, name, FormatRecovery(o))
	}
}

// setFailed запоминает состояние задачи и возвращает предыдущее.
func (a *Alerter) setFailed(name string, v bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.failed[name]
	if v {
		a.failed[name] = true
	} else {
		delete(a.failed, name)
	}
	return prev
}

func (a *Alerter) send(ctx context.Context, job, text string) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cfg := a.retry
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		a.logger.Warn("alert send retry", slog.String("job", job), slog.Int("attempt", attempt),
			slog.Duration("wait", wait), slog.Any("error", err))
	}
	err := retry.DoWithRetryable(ctx, cfg, func(ctx context.Context) error {
		_, err := a.sender.SendMessage(ctx, &bot.SendMessageParams{ChatID: a.chatID, Text: text})
		return err
	}, retryable)
	if err != nil {
		a.logger.Error("alert send failed", slog.String("job", job), slog.Any("error", err))
		return
	}
	a.logger.Debug("alert sent", slog.String("job", job), slog.Int64("chat_id", a.chatID))
}

// retryable повторяет сетевые ошибки и ответ 429 Bot API.
func retryable(err error) bool {
	return retry.DefaultRetryable(err) || errors.Is(err, bot.ErrorTooManyRequests)
}
