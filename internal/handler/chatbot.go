package handler

import (
	"encoding/json"
	"net/http"

	"eppdetect/internal/dto"
	"eppdetect/internal/logger"
	"eppdetect/internal/metrics"
	"eppdetect/internal/model"
	"eppdetect/internal/service/chatbot"
	"eppdetect/internal/service/report"
	"eppdetect/internal/service/session"
)

// ChatbotHandler handles POST /api/chatbot with a {"message": "..."} body.
func ChatbotHandler(bot *chatbot.Bot, metrics *metrics.Metrics, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var req dto.ChatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			respondError(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		response, rule, err := bot.Answer(req.Message)
		if err != nil {
			respondStageError(w, logger, err)
			return
		}
		metrics.ChatbotQueries.Add(1)
		logger.Debug("Chatbot rule %s answered %q", rule, req.Message)

		respondJSON(w, dto.ChatResponse{
			Success:  true,
			Query:    req.Message,
			Response: response,
			Rule:     rule,
		}, http.StatusOK)
	}
}

// LastAnalysisHandler handles GET /api/last. The "format=text" query returns
// the plain-text report instead of JSON.
func LastAnalysisHandler(ctx *session.Context, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verdict, ok := ctx.Get()
		if !ok {
			respondStageError(w, logger, model.ErrNoAnalysis)
			return
		}

		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte(report.RenderVerdict(verdict)))
			return
		}
		respondJSON(w, report.Summarize(verdict), http.StatusOK)
	}
}
