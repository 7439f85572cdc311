package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/enrich"
	"github.com/poiesic/questionbank/search"
)

// handleQuestions serves GET /api/questions?company=&role=&query=&process=true.
// Any failure yields an empty array with status 500.
func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := search.Query{
		Company: strings.TrimSpace(params.Get("company")),
		Role:    strings.TrimSpace(params.Get("role")),
		Text:    strings.TrimSpace(params.Get("query")),
	}
	ctx := r.Context()

	if params.Get("process") == "true" {
		s.logger.Info("running enrichment before search")
		if _, err := s.enricher.Run(ctx, nil); err != nil {
			s.logger.Error("enrichment before search failed", "err", err)
			s.respondJSON(w, http.StatusInternalServerError, []*core.SearchCandidate{})
			return
		}
	}

	s.logger.Debug("search request", "company", q.Company, "role", q.Role, "query", q.Text)
	results, err := s.searcher.Search(ctx, q)
	if err != nil {
		s.logger.Error("search failed", "err", err)
		s.respondJSON(w, http.StatusInternalServerError, []*core.SearchCandidate{})
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

// handleProcess streams pipeline progress as newline-delimited JSON. The run
// is detached from the request so a client disconnect does not stop it.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	sink := enrich.NewChannelSink(progressBuffer, progressSendTimeout)
	runCtx := context.WithoutCancel(r.Context())
	go func() {
		defer sink.Close()
		if _, err := s.enricher.Run(runCtx, sink); err != nil {
			s.logger.Error("streamed enrichment run failed", "err", err)
		}
	}()

	out := enrich.NewWriterSink(w)
	for {
		select {
		case ev, ok := <-sink.Events():
			if !ok {
				if dropped := sink.Dropped(); dropped > 0 {
					s.logger.Warn("progress events dropped", "dropped", dropped)
				}
				return
			}
			out.Progress(ev)
		case <-r.Context().Done():
			s.logger.Info("client disconnected, enrichment continues in background")
			go drain(sink.Events())
			return
		}
	}
}

func drain(events <-chan enrich.Event) {
	for range events {
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to write response", "err", err)
	}
}
