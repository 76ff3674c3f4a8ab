package dispatch

import (
	"context"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	domsvc "CryptoPulse/internal/domain/service"
	applogger "CryptoPulse/pkg/logger"
	"CryptoPulse/pkg/retry"
)

// Dispatcher delivers triggered alerts over the outbound channel with
// exponential-backoff retry. Exhausted retries are logged as terminal and
// never propagated: a failed alert must not crash the run that produced it.
type Dispatcher struct {
	sender  domsvc.AlertSender
	policy  retry.Policy
	log     *applogger.Logger
	metrics drepo.Metrics
}

func NewDispatcher(sender domsvc.AlertSender, policy retry.Policy, log *applogger.Logger, metrics drepo.Metrics) *Dispatcher {
	return &Dispatcher{sender: sender, policy: policy, log: log, metrics: metrics}
}

// SendWithRetry builds the message and attempts delivery under the retry
// policy. The returned bool reports whether the message was delivered.
func (d *Dispatcher) SendWithRetry(ctx context.Context, creds models.ChannelCredentials, res *models.ResearchResult, settings *models.ResearchSettings) bool {
	if creds.Token == "" || creds.ChatID == "" {
		d.log.Warn("alert skipped: channel credentials missing",
			applogger.String("user", res.UserID), applogger.String("symbol", res.Symbol))
		return false
	}
	text := BuildMessage(res, settings)

	err := d.policy.Do(ctx, func(ctx context.Context) error {
		return d.sender.Send(ctx, creds.Token, creds.ChatID, text)
	})
	if err != nil {
		d.metrics.RecordAlert("failed")
		d.log.Error("alert delivery failed permanently",
			applogger.String("user", res.UserID),
			applogger.String("symbol", res.Symbol),
			applogger.Int("attempts", d.policy.MaxAttempts),
			applogger.Error(err))
		return false
	}
	d.metrics.RecordAlert("sent")
	d.log.Info("alert delivered",
		applogger.String("user", res.UserID),
		applogger.String("symbol", res.Symbol),
		applogger.String("signal", string(res.Signal)))
	return true
}
