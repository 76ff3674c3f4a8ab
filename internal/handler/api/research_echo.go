package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	"CryptoPulse/internal/usecase"
	xhttp "CryptoPulse/pkg/http"
	xlogger "CryptoPulse/pkg/logger"
)

// ResearchEchoHandler serves the research API: on-demand runs, history,
// settings and health.
type ResearchEchoHandler struct {
	logger   *xlogger.Logger
	engine   *usecase.ResearchEngine
	settings drepo.SettingsStore
	results  drepo.ResultStore
	history  drepo.HistoryStore // optional
	logs     *xlogger.RingPublisher
}

func NewResearchEchoHandler(
	logger *xlogger.Logger,
	engine *usecase.ResearchEngine,
	settings drepo.SettingsStore,
	results drepo.ResultStore,
	history drepo.HistoryStore,
	logs *xlogger.RingPublisher,
) *ResearchEchoHandler {
	return &ResearchEchoHandler{
		logger:   logger,
		engine:   engine,
		settings: settings,
		results:  results,
		history:  history,
		logs:     logs,
	}
}

func (h *ResearchEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/research", h.Research)
	g.GET("/research/latest", h.Latest)
	g.GET("/research/history", h.History)
	g.GET("/settings", h.GetSettings)
	g.PUT("/settings", h.SaveSettings)
	g.GET("/health", h.Health)
	g.GET("/logs", h.Logs)
}

type symbolOutcome struct {
	Symbol string                 `json:"symbol"`
	Result *models.ResearchResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// Research runs one on-demand pass. Symbols default to the user's selected
// set; on-demand runs never fire alerts.
func (h *ResearchEchoHandler) Research(c echo.Context) error {
	req := &models.DeepResearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	symbols := req.Symbols
	if len(symbols) == 0 {
		cfg, err := h.settings.Get(ctx, req.UserID)
		if err != nil {
			h.logger.Error("settings read failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		if cfg != nil {
			symbols = cfg.SelectedSymbols
		}
	}
	if len(symbols) == 0 {
		return xhttp.BadRequestResponse(c, "no symbols requested and none configured")
	}

	tasks := make([]func(ctx context.Context) (*models.ResearchResult, error), 0, len(symbols))
	for _, sym := range symbols {
		sym := sym
		tasks = append(tasks, func(ctx context.Context) (*models.ResearchResult, error) {
			return h.engine.ResearchSymbol(ctx, req.UserID, sym, req.Profile)
		})
	}

	settled := usecase.GatherAll(ctx, tasks)
	out := make([]symbolOutcome, len(settled))
	for i, st := range settled {
		out[i] = symbolOutcome{Symbol: symbols[i]}
		if st.Err != nil {
			out[i].Error = st.Err.Error()
			continue
		}
		out[i].Result = st.Value
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ResearchEchoHandler) Latest(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	results, err := h.results.LatestResults(c.Request().Context(), req.UserID, req.Limit)
	if err != nil {
		h.logger.Error("latest results failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, results, int64(len(results)))
}

func (h *ResearchEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.history == nil {
		return xhttp.NotFoundResponse(c, "history backend not configured")
	}

	from := xhttp.ParseTimeDefault(req.From, time.Time{})
	to := xhttp.ParseTimeDefault(req.To, time.Time{})
	results, err := h.history.Query(c.Request().Context(), req.UserID, req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, results, int64(len(results)))
}

func (h *ResearchEchoHandler) GetSettings(c echo.Context) error {
	req := &models.SettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg, err := h.settings.Get(c.Request().Context(), req.UserID)
	if err != nil {
		h.logger.Error("settings read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if cfg == nil {
		return xhttp.NotFoundResponse(c, "settings not found")
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *ResearchEchoHandler) SaveSettings(c echo.Context) error {
	req := &models.SaveSettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg := &models.ResearchSettings{
		UserID:                 req.UserID,
		Enabled:                req.Enabled,
		FrequencyMinutes:       req.FrequencyMinutes,
		AccuracyTriggerPercent: req.AccuracyTriggerPercent,
		SelectedSymbols:        req.SelectedSymbols,
		StrategyProfile:        req.StrategyProfile,
		PositionSizing:         req.PositionSizing,
		Channel:                req.Channel,
	}
	if err := h.settings.Save(c.Request().Context(), cfg); err != nil {
		h.logger.Error("settings save failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, cfg)
}

func (h *ResearchEchoHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.history != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.history.Health(ctx); err != nil {
			status["status"] = "degraded"
			status["history"] = err.Error()
		} else {
			status["history"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ResearchEchoHandler) Logs(c echo.Context) error {
	if h.logs == nil {
		return xhttp.SuccessResponse(c, []interface{}{})
	}
	entries := h.logs.Recent()
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), len(entries))
	if limit >= 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	return xhttp.SuccessResponse(c, entries)
}

var _ xhttp.Handler = (*ResearchEchoHandler)(nil)
