package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/db"
	"github.com/jonathan/outreach-agent/internal/marketplace"
	"github.com/jonathan/outreach-agent/internal/orchestrator"
	"github.com/jonathan/outreach-agent/internal/providers"
	"github.com/jonathan/outreach-agent/internal/providers/mock"
	"github.com/jonathan/outreach-agent/internal/types"
)

// memStore is an in-memory store backing the orchestrator, the marketplace,
// and the server's read endpoints in tests.
type memStore struct {
	mu        sync.Mutex
	resumes   map[uuid.UUID]types.Resume
	workflows map[uuid.UUID]types.Workflow
	jobs      []types.Job
	contacts  []types.Contact
	emails    []types.Email
	offers    map[uuid.UUID]types.Offer
	receipts  []types.Receipt
}

func newMemStore() *memStore {
	return &memStore{
		resumes:   make(map[uuid.UUID]types.Resume),
		workflows: make(map[uuid.UUID]types.Workflow),
		offers:    make(map[uuid.UUID]types.Offer),
	}
}

func copyWorkflow(wf types.Workflow) types.Workflow {
	out := wf
	if wf.CostBreakdown != nil {
		out.CostBreakdown = make(map[string]float64, len(wf.CostBreakdown))
		for k, v := range wf.CostBreakdown {
			out.CostBreakdown[k] = v
		}
	}
	out.Errors = append([]types.WorkflowError(nil), wf.Errors...)
	out.JobIDs = append([]uuid.UUID(nil), wf.JobIDs...)
	out.ContactIDs = append([]uuid.UUID(nil), wf.ContactIDs...)
	out.EmailIDs = append([]uuid.UUID(nil), wf.EmailIDs...)
	return out
}

func (s *memStore) CreateResume(_ context.Context, resume *types.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[resume.ID] = *resume
	return nil
}

func (s *memStore) GetResume(_ context.Context, id uuid.UUID) (*types.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resumes[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *memStore) CreateWorkflow(_ context.Context, wf *types.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = copyWorkflow(*wf)
	return nil
}

func (s *memStore) GetWorkflow(_ context.Context, id uuid.UUID) (*types.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wf, ok := s.workflows[id]; ok {
		out := copyWorkflow(wf)
		return &out, nil
	}
	return nil, nil
}

func (s *memStore) UpdateWorkflow(_ context.Context, wf *types.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ID] = copyWorkflow(*wf)
	return nil
}

func (s *memStore) ListWorkflows(_ context.Context, status string, limit, offset int) ([]types.Workflow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Workflow
	for _, wf := range s.workflows {
		if status != "" && wf.Status != status {
			continue
		}
		out = append(out, copyWorkflow(wf))
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CreateJob(_ context.Context, job *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, *job)
	return nil
}

func (s *memStore) CreateContact(_ context.Context, contact *types.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, *contact)
	return nil
}

func (s *memStore) UpdateContactEnrichment(_ context.Context, id uuid.UUID, email string, confidence float64, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contacts {
		if s.contacts[i].ID == id {
			s.contacts[i].Email = &email
			s.contacts[i].EmailConfidence = &confidence
			s.contacts[i].EmailSource = &source
			return nil
		}
	}
	return fmt.Errorf("contact not found")
}

func (s *memStore) CreateEmail(_ context.Context, email *types.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, *email)
	return nil
}

func (s *memStore) ListJobsByWorkflow(_ context.Context, workflowID uuid.UUID) ([]types.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Job
	for _, j := range s.jobs {
		if j.WorkflowID == workflowID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *memStore) ListContactsByWorkflow(_ context.Context, workflowID uuid.UUID) ([]types.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Contact
	for _, c := range s.contacts {
		if c.WorkflowID == workflowID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) ListEmailsByWorkflow(_ context.Context, workflowID uuid.UUID) ([]types.Email, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Email
	for _, e := range s.emails {
		if e.WorkflowID == workflowID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) CreateOffer(_ context.Context, offer *types.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[offer.ID] = *offer
	return nil
}

func (s *memStore) GetOffer(_ context.Context, id uuid.UUID) (*types.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.offers[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *memStore) UpdateOfferStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offers[id]
	if !ok || o.Status != types.OfferStatusPending {
		return fmt.Errorf("offer not updatable")
	}
	o.Status = status
	s.offers[id] = o
	return nil
}

func (s *memStore) CreateReceipt(_ context.Context, receipt *types.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, *receipt)
	return nil
}

func (s *memStore) ListRecentOffers(_ context.Context, capability, status string, limit int) ([]types.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Offer
	for _, o := range s.offers {
		if capability != "" && o.Capability != capability {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, o)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) ListRecentReceipts(_ context.Context, limit int) ([]types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]types.Receipt(nil), s.receipts...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetStats(_ context.Context) (*db.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &db.Stats{
		WorkflowsTotal:     int64(len(s.workflows)),
		WorkflowsByStatus:  make(map[string]int64),
		JobsTotal:          int64(len(s.jobs)),
		ContactsTotal:      int64(len(s.contacts)),
		EmailsTotal:        int64(len(s.emails)),
		OffersByStatus:     make(map[string]int64),
		ReceiptsTotal:      int64(len(s.receipts)),
		SpendByProviderUSD: make(map[string]float64),
	}
	for _, wf := range s.workflows {
		stats.WorkflowsByStatus[wf.Status]++
	}
	for _, o := range s.offers {
		stats.OffersByStatus[o.Status]++
	}
	for _, r := range s.receipts {
		stats.TotalSpendUSD += r.AmountPaidUSD
		stats.SpendByProviderUSD[r.ProviderID] += r.AmountPaidUSD
	}
	return stats, nil
}

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	market := marketplace.New(store)
	for _, p := range []*mock.Provider{
		mock.JobSearch("jobs", 0.02, providers.JobLead{
			Title: "Backend Engineer", Company: "Acme", URL: "https://acme.example/jobs/1",
		}),
		mock.PeopleSearch("people", 0.10, providers.ContactLead{
			Name: "Jane Doe", Title: "Engineering Manager", Company: "Acme",
			ProfileURL: "https://linkedin.example/in/janedoe",
		}),
		mock.Enricher("enrich", 0.03, "jane.doe@acme.com", 0.9),
		mock.Drafter("drafter", 0.01),
	} {
		market.RegisterProvider(p.Capability(), p)
	}
	orch := orchestrator.New(store, market, orchestrator.Config{PacingInterval: time.Millisecond})

	srv, err := New(Config{Port: 0}, orch, store)
	require.NoError(t, err)
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv, store
}

func startRequest() *bytes.Buffer {
	body, _ := json.Marshal(orchestrator.StartParams{
		ResumeText:  "Senior backend engineer with eight years of Go experience.",
		TargetRoles: []string{"backend engineer"},
		Strategy:    "cheapest",
	})
	return bytes.NewBuffer(body)
}

func startWorkflowAndWait(t *testing.T, srv *Server, store *memStore) uuid.UUID {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/workflows", startRequest()))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	id, err := uuid.Parse(resp["workflow_id"])
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		wf, _ := store.GetWorkflow(context.Background(), id)
		return wf != nil && wf.IsTerminal()
	}, 10*time.Second, 5*time.Millisecond)
	return id
}

func TestHandleStartWorkflow_Accepted(t *testing.T) {
	srv, store := newTestServer(t)
	id := startWorkflowAndWait(t, srv, store)

	wf, err := store.GetWorkflow(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.WorkflowStatusCompleted, wf.Status)
}

func TestHandleStartWorkflow_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/workflows", bytes.NewBufferString("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleStartWorkflow_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(orchestrator.StartParams{ResumeText: "resume"})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/workflows", bytes.NewBuffer(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "invalid workflow parameters")
}

func TestHandleGetWorkflow(t *testing.T) {
	srv, store := newTestServer(t)
	id := startWorkflowAndWait(t, srv, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/workflows/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view orchestrator.StatusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, id, view.Workflow.ID)
	assert.Equal(t, types.WorkflowStatusCompleted, view.Workflow.Status)
	assert.NotEmpty(t, view.Jobs)
}

func TestHandleGetWorkflow_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/workflows/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetWorkflow_InvalidID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/workflows/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetWorkflowResults(t *testing.T) {
	srv, store := newTestServer(t)
	id := startWorkflowAndWait(t, srv, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/workflows/"+id.String()+"/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view orchestrator.StatusView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.NotEmpty(t, view.Emails)
	assert.NotNil(t, view.Resume)
}

func TestHandleCancelWorkflow_AlreadyFinished(t *testing.T) {
	srv, store := newTestServer(t)
	id := startWorkflowAndWait(t, srv, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/workflows/"+id.String()+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleListWorkflows(t *testing.T) {
	srv, store := newTestServer(t)
	startWorkflowAndWait(t, srv, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/workflows?status=completed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Workflows []types.Workflow `json:"workflows"`
		Count     int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestHandleListOffersAndReceipts(t *testing.T) {
	srv, store := newTestServer(t)
	startWorkflowAndWait(t, srv, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/offers?status=accepted", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var offersResp struct {
		Offers []types.Offer `json:"offers"`
		Count  int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offersResp))
	assert.NotZero(t, offersResp.Count)
	for _, o := range offersResp.Offers {
		assert.Equal(t, types.OfferStatusAccepted, o.Status)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/receipts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var receiptsResp struct {
		Receipts []types.Receipt `json:"receipts"`
		Count    int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receiptsResp))
	assert.NotZero(t, receiptsResp.Count)
}

func TestHandleStats(t *testing.T) {
	srv, store := newTestServer(t)
	startWorkflowAndWait(t, srv, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats db.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.WorkflowsTotal)
	assert.Greater(t, stats.TotalSpendUSD, 0.0)
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHandleWorkflowEvents_TerminalWorkflow(t *testing.T) {
	srv, store := newTestServer(t)
	id := startWorkflowAndWait(t, srv, store)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/workflows/"+id.String()+"/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: complete")
	assert.Contains(t, rec.Body.String(), types.WorkflowStatusCompleted)
}

func TestAuthEnabled_RejectsWithoutToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "server-test-secret")

	store := newMemStore()
	market := marketplace.New(store)
	orch := orchestrator.New(store, market, orchestrator.Config{PacingInterval: time.Millisecond})

	srv, err := New(Config{Port: 0, AuthEnabled: true}, orch, store)
	require.NoError(t, err)
	t.Cleanup(func() { srv.rateLimiter.Stop() })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/workflows", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A token minted by the server's own service is accepted
	token, err := srv.JWT().GenerateToken("test-client")
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/api/workflows", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func jwtTestConfig(secret string) *config.JWTConfig {
	return &config.JWTConfig{Secret: secret, ExpirationHours: 1}
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(jwtTestConfig("secret-a"))

	token, err := svc.GenerateToken("cli-client")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cli-client", claims.GetSubject())
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService(jwtTestConfig("secret-a")).GenerateToken("cli-client")
	require.NoError(t, err)

	_, err = NewJWTService(jwtTestConfig("secret-b")).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsEmptyInput(t *testing.T) {
	svc := NewJWTService(jwtTestConfig("secret-a"))

	_, err := svc.GenerateToken("")
	assert.Error(t, err)

	_, err = svc.ValidateToken("")
	assert.Error(t, err)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
