package usecase

import (
	"context"
	"fmt"

	"CryptoPulse/internal/dispatch"
	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	"CryptoPulse/internal/notify"
	applogger "CryptoPulse/pkg/logger"
)

// AlertJob carries one triggered signal to the delivery side.
type AlertJob struct {
	Settings *models.ResearchSettings
	Result   *models.ResearchResult
}

// Notifier is the delivery fan: channel dispatch with retry, live push to
// connected clients, and the persisted alert log the UI reads later.
type Notifier struct {
	dispatcher *dispatch.Dispatcher
	hub        *notify.Hub
	results    drepo.ResultStore
	log        *applogger.Logger
}

func NewNotifier(dispatcher *dispatch.Dispatcher, hub *notify.Hub, results drepo.ResultStore, log *applogger.Logger) *Notifier {
	return &Notifier{dispatcher: dispatcher, hub: hub, results: results, log: log}
}

// Dispatch delivers one triggered alert on every path. Each path fails
// independently; none of them propagates.
func (n *Notifier) Dispatch(ctx context.Context, job *AlertJob) error {
	if job == nil || job.Result == nil || job.Settings == nil {
		return fmt.Errorf("incomplete alert job")
	}
	res := job.Result

	alert := models.Alert{
		Type:      "research",
		Symbol:    res.Symbol,
		Accuracy:  res.Confidence,
		Direction: string(res.Signal),
		Amount:    job.Settings.PositionSize(res.Confidence),
		Title:     fmt.Sprintf("%s %s signal", res.Symbol, res.Signal),
		Message:   res.Recommendation,
		Data:      map[string]any{"breakdown": res.Breakdown, "providers": res.Providers},
	}

	n.hub.Broadcast(res.UserID, alert)

	if err := n.results.LogAlert(ctx, res.UserID, alert); err != nil {
		n.log.Warn("alert log write failed", applogger.String("user", res.UserID), applogger.Error(err))
	}

	n.dispatcher.SendWithRetry(ctx, job.Settings.Channel, res, job.Settings)
	return nil
}
