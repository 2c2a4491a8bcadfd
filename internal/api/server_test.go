package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"hotdesk/internal/config"
	"hotdesk/internal/database"
	"hotdesk/internal/models"

	"github.com/rs/zerolog"
)

func TestCreateRequestEndpoint(t *testing.T) {
	svc := &stubRequestService{}
	ts := newTestServer(t, svc, openConfig())

	resp := postJSON(t, ts, "/api/v1/requests", map[string]any{
		"requester_id": 100,
		"assignee_id":  200,
		"ref_no":       "1M 102",
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if svc.created == nil {
		t.Fatalf("expected service call")
	}
	if svc.created.RefNo != "1M 102" {
		t.Fatalf("unexpected ref_no: %s", svc.created.RefNo)
	}
}

func TestCreateRequestValidation(t *testing.T) {
	svc := &stubRequestService{}
	ts := newTestServer(t, svc, openConfig())

	resp := postJSON(t, ts, "/api/v1/requests", map[string]any{"requester_id": 100}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if svc.created != nil {
		t.Fatalf("service must not be called on invalid input")
	}
}

func TestDecideEndpointConflict(t *testing.T) {
	svc := &stubRequestService{decideErr: database.ErrNotPending}
	ts := newTestServer(t, svc, openConfig())

	resp := postJSON(t, ts, "/api/v1/requests/7/decide", map[string]any{
		"decider_id": 200,
		"decision":   "approved",
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCancelEndpointForbidden(t *testing.T) {
	svc := &stubRequestService{cancelErr: database.ErrForbidden}
	ts := newTestServer(t, svc, openConfig())

	resp := postJSON(t, ts, "/api/v1/requests/7/cancel", map[string]any{
		"actor_id": 999,
		"reason":   "передумал",
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestGetRequestNotFound(t *testing.T) {
	svc := &stubRequestService{getErr: database.ErrRequestNotFound}
	ts := newTestServer(t, svc, openConfig())

	resp, err := http.Get(ts.URL + "/api/v1/requests/12345")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUserRequestsEmptyList(t *testing.T) {
	svc := &stubRequestService{}
	ts := newTestServer(t, svc, openConfig())

	resp, err := http.Get(ts.URL + "/api/v1/users/100/requests")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Requests []*models.HotDeskRequest `json:"requests"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Requests == nil || len(body.Requests) != 0 {
		t.Fatalf("expected empty array, got %v", body.Requests)
	}
}

func TestReportsEndpoints(t *testing.T) {
	svc := &stubRequestService{
		stats:   []models.ResponderStats{{AssigneeID: 200, Approved: 3}},
		reasons: []models.CancellationReason{{Reason: "передумал", Count: 2}},
	}
	ts := newTestServer(t, svc, openConfig())

	resp, err := http.Get(ts.URL + "/api/v1/reports/responders")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/api/v1/reports/cancellations")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp2.StatusCode)
	}
}

func TestRequestIDHeaderEcho(t *testing.T) {
	svc := &stubRequestService{request: &models.HotDeskRequest{ID: 1}}
	ts := newTestServer(t, svc, openConfig())

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/requests/1", nil)
	req.Header.Set(requestIDHeader, "trace-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get(requestIDHeader); got != "trace-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

// Helpers

type stubRequestService struct {
	created   *models.HotDeskRequest
	request   *models.HotDeskRequest
	getErr    error
	decideErr error
	cancelErr error
	stats     []models.ResponderStats
	reasons   []models.CancellationReason
}

func (s *stubRequestService) CreateRequest(ctx context.Context, req *models.HotDeskRequest) error {
	s.created = req
	req.ID = 1
	return nil
}

func (s *stubRequestService) Decide(ctx context.Context, requestID, deciderID int64, decision, reason string) error {
	return s.decideErr
}

func (s *stubRequestService) Cancel(ctx context.Context, requestID, actorID int64, reason string) error {
	return s.cancelErr
}

func (s *stubRequestService) Reassign(ctx context.Context, requestID, actorID, newAssigneeID int64) error {
	return nil
}

func (s *stubRequestService) FileComplaint(ctx context.Context, requestID, requesterID int64, complaint string) error {
	return nil
}

func (s *stubRequestService) GetRequest(ctx context.Context, id int64) (*models.HotDeskRequest, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.request != nil {
		return s.request, nil
	}
	return &models.HotDeskRequest{ID: id}, nil
}

func (s *stubRequestService) GetUserRequests(ctx context.Context, requesterID int64) ([]*models.HotDeskRequest, error) {
	return nil, nil
}

func (s *stubRequestService) GetResponderStats(ctx context.Context) ([]models.ResponderStats, error) {
	return s.stats, nil
}

func (s *stubRequestService) GetCancellationReasons(ctx context.Context) ([]models.CancellationReason, error) {
	return s.reasons, nil
}

func openConfig() config.APIConfig {
	return config.APIConfig{Enabled: true, HTTP: config.APIHTTPConfig{Enabled: true, Port: 0}}
}

func newTestServer(t *testing.T, svc *stubRequestService, cfg config.APIConfig) *httptest.Server {
	t.Helper()
	logger := zerolog.New(os.Stdout)
	server := NewServer(cfg, svc, &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, payload map[string]any, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
