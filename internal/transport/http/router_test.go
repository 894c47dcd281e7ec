package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"heirloom/internal/audit"
	audithandler "heirloom/internal/audit/handler"
	authhandler "heirloom/internal/auth/handler"
	authservice "heirloom/internal/auth/service"
	userstore "heirloom/internal/auth/store/user"
	estatehandler "heirloom/internal/estate/handler"
	estateservice "heirloom/internal/estate/service"
	assetstore "heirloom/internal/estate/store/asset"
	beneficiarystore "heirloom/internal/estate/store/beneficiary"
	inheritancehandler "heirloom/internal/inheritance/handler"
	inheritanceservice "heirloom/internal/inheritance/service"
	allocationstore "heirloom/internal/inheritance/store/allocation"
	rulestore "heirloom/internal/inheritance/store/rule"
	"heirloom/internal/jwttoken"
	onboardinghandler "heirloom/internal/onboarding/handler"
	onboardingservice "heirloom/internal/onboarding/service"
	onboardingstore "heirloom/internal/onboarding/store"
	"heirloom/internal/platform/metrics"
	"heirloom/pkg/platform/tx"
)

var routerMetrics = metrics.New()

// newTestRouter assembles the full API against memory stores, with the audit
// worker running so the trail endpoint has data to serve.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := jwttoken.NewJWTService("test-signing-key", "heirloom", "heirloom")

	users := userstore.NewInMemory()
	onboarding := onboardingstore.NewInMemory()
	assets := assetstore.NewInMemory()
	beneficiaries := beneficiarystore.NewInMemory()
	rules := rulestore.NewInMemory()
	allocations := allocationstore.NewInMemory()
	auditStore := audit.NewInMemoryStore()

	publisher := audit.NewPublisher(64, log)
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = worker.Run(ctx) }()

	onboardingSvc := onboardingservice.New(onboarding,
		onboardingservice.WithLogger(log),
		onboardingservice.WithAuditPublisher(publisher),
	)
	authSvc := authservice.New(users, onboarding, tokens, time.Hour,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
	)
	estateSvc := estateservice.New(assets, beneficiaries,
		estateservice.WithLogger(log),
		estateservice.WithAuditPublisher(publisher),
	)
	inheritanceSvc := inheritanceservice.New(rules, allocations, assets, beneficiaries, &tx.Serial{},
		inheritanceservice.WithLogger(log),
	)

	return NewRouter(Deps{
		Logger:    log,
		Metrics:   routerMetrics,
		Validator: tokens,
		Public: []Registrar{
			authhandler.New(authSvc, log),
		},
		Protected: []Registrar{
			onboardinghandler.New(onboardingSvc, log),
			estatehandler.New(estateSvc, log),
			inheritancehandler.New(inheritanceSvc, log),
			audithandler.New(auditStore, log),
		},
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func signup(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":     email,
		"password":  "correct horse battery",
		"full_name": "Rosa Lindqvist",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from signup, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token in signup response")
	}
	return resp.AccessToken
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/onboarding/status", "/assets", "/beneficiaries", "/rules", "/me/audit"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s without token, got %d", path, rec.Code)
		}
		var envelope struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal 401 body for %s: %v", path, err)
		}
		if envelope.Error != "unauthorized" || envelope.ErrorDescription == "" {
			t.Fatalf("unexpected 401 envelope for %s: %q / %q", path, envelope.Error, envelope.ErrorDescription)
		}
	}
}

func TestSignupLoginAndDuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	signup(t, router, "rosa@example.com")

	rec := doJSON(t, router, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":     "Rosa@Example.com",
		"password":  "another password",
		"full_name": "Impostor",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "rosa@example.com",
		"password": "correct horse battery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "rosa@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestOnboardingFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "flow@example.com")

	rec := doJSON(t, router, http.MethodGet, "/onboarding/status", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from status, got %d", rec.Code)
	}
	var status struct {
		CurrentStep         string `json:"current_step"`
		OnboardingCompleted bool   `json:"onboarding_completed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.CurrentStep != "personal_info" || status.OnboardingCompleted {
		t.Fatalf("fresh user should start at personal_info, got %+v", status)
	}

	steps := []map[string]any{
		{"personal_info": map[string]string{"date_of_birth": "1959-03-14", "phone": "+1-555-0142", "city": "Boise", "country": "US"}},
		{"signature": map[string]string{"data": "iVBORw0KGgo="}},
		{"legal_consent": map[string]any{"accepted": true, "version": "2026-02"}},
		{"verification": map[string]any{"confirmed": true}},
	}
	for i, payload := range steps {
		rec := doJSON(t, router, http.MethodPost, "/onboarding/steps/"+strconv.Itoa(i), token, payload)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 saving step %d, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}

	rec = doJSON(t, router, http.MethodGet, "/onboarding/status", token, nil)
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.OnboardingCompleted || status.CurrentStep != "complete" {
		t.Fatalf("expected completed onboarding, got %+v", status)
	}

	// Out-of-range step index is a 400 with the standard envelope.
	rec = doJSON(t, router, http.MethodPost, "/onboarding/steps/4", token, steps[0])
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for step 4, got %d", rec.Code)
	}
	var envelope struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error != "validation_error" || envelope.ErrorDescription == "" {
		t.Fatalf("unexpected error envelope: %+v", envelope)
	}
}

func TestAllocationLimitOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "alloc@example.com")

	rec := doJSON(t, router, http.MethodPost, "/assets", token, map[string]any{
		"type": "property", "name": "Lake house", "value": 400000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating asset, got %d: %s", rec.Code, rec.Body.String())
	}
	var asset struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, "/beneficiaries", token, map[string]any{
		"full_name": "Nadia Osei", "relationship": "child",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating beneficiary, got %d: %s", rec.Code, rec.Body.String())
	}
	var beneficiary struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&beneficiary); err != nil {
		t.Fatalf("decode beneficiary: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, "/rules", token, map[string]any{"name": "Family split"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating rule, got %d: %s", rec.Code, rec.Body.String())
	}
	var rule struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&rule); err != nil {
		t.Fatalf("decode rule: %v", err)
	}

	allocationsPath := "/rules/" + rule.ID.String() + "/allocations"
	rec = doJSON(t, router, http.MethodPost, allocationsPath, token, map[string]any{
		"asset_id": asset.ID, "beneficiary_id": beneficiary.ID, "percentage": 60,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating allocation, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, allocationsPath, token, map[string]any{
		"asset_id": asset.ID, "beneficiary_id": beneficiary.ID, "percentage": 50,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for overallocation, got %d: %s", rec.Code, rec.Body.String())
	}

	// The dry-run check agrees without writing.
	rec = doJSON(t, router, http.MethodPost, "/allocations/validate", token, map[string]any{
		"asset_id": asset.ID, "beneficiary_id": beneficiary.ID, "percentage": 50,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from validate, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Valid            bool    `json:"valid"`
		PercentAllocated float64 `json:"percent_allocated"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode validation result: %v", err)
	}
	if result.Valid || result.PercentAllocated != 60 {
		t.Fatalf("unexpected validation result: %+v", result)
	}

	rec = doJSON(t, router, http.MethodGet, allocationsPath, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing allocations, got %d", rec.Code)
	}
	var list struct {
		Allocations []struct {
			Percentage *float64 `json:"percentage"`
		} `json:"allocations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode allocations: %v", err)
	}
	if len(list.Allocations) != 1 || list.Allocations[0].Percentage == nil || *list.Allocations[0].Percentage != 60 {
		t.Fatalf("first allocation should be unchanged, got %+v", list)
	}
}

func TestOwnershipIsolationOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	ownerToken := signup(t, router, "owner@example.com")
	strangerToken := signup(t, router, "stranger@example.com")

	rec := doJSON(t, router, http.MethodPost, "/assets", ownerToken, map[string]any{
		"type": "financial", "name": "Brokerage account", "value": 120000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating asset, got %d", rec.Code)
	}
	var asset struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&asset); err != nil {
		t.Fatalf("decode asset: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/assets/"+asset.ID.String(), strangerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign asset, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/assets/"+asset.ID.String(), strangerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting foreign asset, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/assets/"+asset.ID.String(), ownerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner should still see the asset, got %d", rec.Code)
	}
}

func TestAuditTrailOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := signup(t, router, "audited@example.com")

	rec := doJSON(t, router, http.MethodPost, "/assets", token, map[string]any{
		"type": "personal", "name": "Piano", "value": 9000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating asset, got %d", rec.Code)
	}

	// The audit worker persists asynchronously; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = doJSON(t, router, http.MethodGet, "/me/audit", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 from audit trail, got %d", rec.Code)
		}
		var trail struct {
			Events []struct {
				Action string `json:"action"`
			} `json:"events"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&trail); err != nil {
			t.Fatalf("decode audit trail: %v", err)
		}
		if len(trail.Events) >= 1 && trail.Events[0].Action == "asset.created" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("audit trail never showed asset.created, got %+v", trail)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
}
