package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mission-control/internal/logging"
	"mission-control/internal/query"
	"mission-control/internal/stream"
	"mission-control/internal/telemetry"
	"mission-control/internal/warden"
)

const maxChatBody = 64 << 10

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"fires":    s.store.Len(telemetry.KindFire),
		"drones":   s.store.Len(telemetry.KindDrone),
	})
}

type recentResponse struct {
	Fires  []telemetry.Reading `json:"fires"`
	Drones []telemetry.Reading `json:"drones"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	res := s.engine.Recent()
	s.writeJSON(w, http.StatusOK, recentResponse{Fires: res.Fires, Drones: res.Drones})
}

type queryResponse struct {
	Fires    []telemetry.Reading `json:"fires"`
	Drones   []telemetry.Reading `json:"drones"`
	Totals   query.Totals        `json:"totals"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// handleQuery never rejects parameters; bad values fall back to defaults.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	win := s.engine.Parse(r.URL.Query())
	res := s.engine.Query(win)
	s.writeJSON(w, http.StatusOK, queryResponse{
		Fires:    res.Fires,
		Drones:   res.Drones,
		Totals:   res.Totals,
		Page:     win.Page,
		PageSize: win.PageSize,
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	end := s.now().UnixMilli()
	start := end - (24 * time.Hour).Milliseconds()
	out := make([]telemetry.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if n.Timestamp >= start && n.Timestamp <= end {
			out = append(out, n)
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	reply, err := s.warden.Reply(req.Message)
	if errors.Is(err, warden.ErrEmptyMessage) {
		s.writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if err != nil {
		s.log.Error("chat reply", "err", err)
		s.writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	msg := []rune(req.Message)
	if len(msg) > 100 {
		msg = msg[:100]
	}
	s.log.Info("fire warden chat", "message", string(msg), "type", reply.Type)
	s.writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"sessions": s.sessions.Active()})
}

// handleStream upgrades the request and runs a session with a fresh
// producer until either side goes away.
func (s *Server) handleStream(newProducer func() stream.Producer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the error response.
			s.log.Warn("websocket upgrade", "path", r.URL.Path, "err", err)
			return
		}
		ctx := logging.NewContext(r.Context(), s.log)
		t := stream.NewWSTransport(conn, s.ws)
		if err := s.sessions.Serve(ctx, t, newProducer()); err != nil && !errors.Is(err, stream.ErrShutdown) {
			s.log.Debug("stream ended with error", "path", r.URL.Path, "err", err)
		}
	}
}
