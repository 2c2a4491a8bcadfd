package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"hotdesk/internal/database"
	"hotdesk/internal/models"

	"github.com/gorilla/mux"
)

type createRequestBody struct {
	RequesterID int64  `json:"requester_id"`
	AssigneeID  int64  `json:"assignee_id"`
	RefNo       string `json:"ref_no"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.RequesterID == 0 || body.AssigneeID == 0 || body.RefNo == "" {
		writeError(w, http.StatusBadRequest, "requester_id, assignee_id and ref_no are required")
		return
	}

	req := &models.HotDeskRequest{
		RequesterID: body.RequesterID,
		AssigneeID:  body.AssigneeID,
		RefNo:       body.RefNo,
	}
	if err := s.requests.CreateRequest(r.Context(), req); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	req, err := s.requests.GetRequest(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type decideBody struct {
	DeciderID int64  `json:"decider_id"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var body decideBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.DeciderID == 0 {
		writeError(w, http.StatusBadRequest, "decider_id is required")
		return
	}

	if err := s.requests.Decide(r.Context(), id, body.DeciderID, body.Decision, body.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": body.Decision})
}

type cancelBody struct {
	ActorID int64  `json:"actor_id"`
	Reason  string `json:"reason"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var body cancelBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ActorID == 0 {
		writeError(w, http.StatusBadRequest, "actor_id is required")
		return
	}

	if err := s.requests.Cancel(r.Context(), id, body.ActorID, body.Reason); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCancelled})
}

type reassignBody struct {
	ActorID       int64 `json:"actor_id"`
	NewAssigneeID int64 `json:"new_assignee_id"`
}

func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var body reassignBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ActorID == 0 || body.NewAssigneeID == 0 {
		writeError(w, http.StatusBadRequest, "actor_id and new_assignee_id are required")
		return
	}

	if err := s.requests.Reassign(r.Context(), id, body.ActorID, body.NewAssigneeID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignee_id": body.NewAssigneeID})
}

type complaintBody struct {
	RequesterID int64  `json:"requester_id"`
	Complaint   string `json:"complaint"`
}

func (s *Server) handleComplaint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var body complaintBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.RequesterID == 0 {
		writeError(w, http.StatusBadRequest, "requester_id is required")
		return
	}

	if err := s.requests.FileComplaint(r.Context(), id, body.RequesterID, body.Complaint); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "recorded"})
}

func (s *Server) handleUserRequests(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	requests, err := s.requests.GetUserRequests(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if requests == nil {
		requests = []*models.HotDeskRequest{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (s *Server) handleResponderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.requests.GetResponderStats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if stats == nil {
		stats = []models.ResponderStats{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"responders": stats})
}

func (s *Server) handleCancellationReasons(w http.ResponseWriter, r *http.Request) {
	reasons, err := s.requests.GetCancellationReasons(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if reasons == nil {
		reasons = []models.CancellationReason{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reasons": reasons})
}

// writeServiceError maps domain sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrRequestNotFound), errors.Is(err, database.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrForbidden), errors.Is(err, database.ErrNotCurrentResponder):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrDuplicateActiveRequest),
		errors.Is(err, database.ErrSeatUnavailable),
		errors.Is(err, database.ErrNotPending),
		errors.Is(err, database.ErrStaleTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrMissingReason),
		errors.Is(err, database.ErrInvalidDecision),
		errors.Is(err, models.ErrInvalidRefNo):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
