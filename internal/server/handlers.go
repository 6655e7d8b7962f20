package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/outreach-agent/internal/orchestrator"
)

// maxListLimit caps page sizes on listing endpoints
const maxListLimit = 200

// handleStartWorkflow launches a new outreach campaign run
func (s *Server) handleStartWorkflow(w http.ResponseWriter, r *http.Request) {
	var params orchestrator.StartParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	id, err := s.orch.StartWorkflow(r.Context(), params)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// The run continues in the background; poll status or stream events
	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"workflow_id": id.String(),
		"status":      "pending",
	})
}

// handleListWorkflows lists workflows, optionally filtered by status
func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	filter := orchestrator.ListFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	workflows, err := s.orch.ListWorkflows(r.Context(), filter)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"workflows": workflows,
		"count":     len(workflows),
	})
}

// handleGetWorkflow returns the status projection for one workflow
func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}

	view, err := s.orch.GetWorkflowStatus(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// handleGetWorkflowResults returns the full artifact collections
func (s *Server) handleGetWorkflowResults(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}

	view, err := s.orch.GetWorkflowResults(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// handleCancelWorkflow requests cancellation of an active workflow
func (s *Server) handleCancelWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}

	if err := s.orch.CancelWorkflow(r.Context(), id); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"workflow_id": id.String(),
		"status":      "cancelled",
	})
}

// handleWorkflowEvents streams workflow progress as Server-Sent Events until
// the run reaches a terminal state or the client disconnects.
func (s *Server) handleWorkflowEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r)
	if !ok {
		return
	}

	// Subscribe before the terminal check so no close is missed
	hub := s.orch.Events()
	ch := hub.Subscribe(id)
	defer hub.Unsubscribe(id, ch)

	view, err := s.orch.GetWorkflowStatus(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	if view.Workflow.IsTerminal() {
		sse.WriteComplete(id.String(), string(view.Workflow.Status))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-ch:
			if !open {
				// Hub closed the stream; report the final status
				if final, err := s.orch.GetWorkflowStatus(r.Context(), id); err == nil {
					sse.WriteComplete(id.String(), string(final.Workflow.Status))
				}
				return
			}
			if err := sse.WriteEvent(string(event.Type), event); err != nil {
				log.Printf("SSE write failed for workflow %s: %v", id, err)
				return
			}
		}
	}
}

// handleListOffers lists recent marketplace offers
func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offers, err := s.market.ListRecentOffers(r.Context(),
		r.URL.Query().Get("capability"),
		r.URL.Query().Get("status"),
		limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"offers": offers,
		"count":  len(offers),
	})
}

// handleListReceipts lists recent payment receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit > maxListLimit {
		limit = maxListLimit
	}

	receipts, err := s.market.ListRecentReceipts(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"receipts": receipts,
		"count":    len(receipts),
	})
}

// handleStats returns aggregate workflow and spend statistics
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.market.GetStats(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// pathUUID parses the {id} path segment, writing a 400 on failure
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid workflow id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
