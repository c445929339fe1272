package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Mujanati13/xcite/internal/auth"
	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/service"
	"github.com/Mujanati13/xcite/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock service ---

type mockService struct {
	listProperties func(ctx context.Context, agentID *int64, page, limit int) (models.PropertyPage, error)
	listByAgent    func(ctx context.Context, agentID int64) ([]models.AgentMeterRow, error)
	listContracts  func(ctx context.Context, propertyID int64) ([]models.Contract, error)
	updateProperty func(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error)
}

func (m *mockService) ListProperties(ctx context.Context, agentID *int64, page, limit int) (models.PropertyPage, error) {
	return m.listProperties(ctx, agentID, page, limit)
}
func (m *mockService) ListByAgent(ctx context.Context, agentID int64) ([]models.AgentMeterRow, error) {
	return m.listByAgent(ctx, agentID)
}
func (m *mockService) ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error) {
	return m.listContracts(ctx, propertyID)
}
func (m *mockService) UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error) {
	return m.updateProperty(ctx, propertyID, upd)
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	signingKey = "signing-key"
	secretKey  = "shared-secret"
)

type testEnv struct {
	srv    http.Handler
	issuer *auth.Issuer
	token  string
}

func newEnv(t *testing.T, svc *mockService) testEnv {
	t.Helper()
	issuer, err := auth.NewIssuer(signingKey, secretKey)
	require.NoError(t, err)
	token, err := issuer.Generate(30, "test")
	require.NoError(t, err)

	h, err := web.NewHandler(svc, issuer, testLogger, 30)
	require.NoError(t, err)
	return testEnv{
		srv:    web.NewServer(h, testLogger, []string{"*"}),
		issuer: issuer,
		token:  token,
	}
}

func (e testEnv) do(t *testing.T, method, url, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rr := httptest.NewRecorder()
	e.srv.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       json.RawMessage    `json:"data"`
	Pagination *models.Pagination `json:"pagination"`
	Count      *int               `json:"count"`
	Error      string             `json:"error"`
	Token      string             `json:"token"`
	ExpiresIn  string             `json:"expiresIn"`
	User       *auth.Claims       `json:"user"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

var sampleProperty = models.Property{ID: 13, AgentID: 1, Status: 1, Street: "Lindenallee", City: "Köln", MeterCount: 2}

// =================================================================
// GET /api/properties
// =================================================================

func TestListProperties_200(t *testing.T) {
	svc := &mockService{
		listProperties: func(_ context.Context, agentID *int64, page, limit int) (models.PropertyPage, error) {
			assert.Nil(t, agentID)
			assert.Equal(t, 1, page)
			assert.Equal(t, models.DefaultPageSize, limit)
			return models.PropertyPage{
				Properties: []models.Property{sampleProperty},
				Pagination: models.NewPagination(1, 50, 1),
			}, nil
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodGet, "/api/properties", "", true)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	resp := decode(t, rr)
	assert.True(t, resp.Success)
	assert.Equal(t, "All properties retrieved successfully", resp.Message)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 1, *resp.Count)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1, resp.Pagination.TotalRecords)

	var props []models.Property
	require.NoError(t, json.Unmarshal(resp.Data, &props))
	require.Len(t, props, 1)
	assert.Equal(t, "Lindenallee", props[0].Street)
}

func TestListProperties_QueryParams(t *testing.T) {
	var capturedAgent *int64
	var capturedPage, capturedLimit int
	svc := &mockService{
		listProperties: func(_ context.Context, agentID *int64, page, limit int) (models.PropertyPage, error) {
			capturedAgent, capturedPage, capturedLimit = agentID, page, limit
			return models.PropertyPage{Properties: []models.Property{}, Pagination: models.NewPagination(page, limit, 0)}, nil
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodGet, "/api/properties?makler_id=7&page=3&limit=20", "", true)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, capturedAgent)
	assert.Equal(t, int64(7), *capturedAgent)
	assert.Equal(t, 3, capturedPage)
	assert.Equal(t, 20, capturedLimit)
	assert.Equal(t, "Properties for agent ID 7 retrieved successfully", decode(t, rr).Message)
}

func TestListProperties_400_BadParam(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodGet, "/api/properties?page=abc", "", true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, decode(t, rr).Success)
}

func TestListProperties_400_ServiceValidation(t *testing.T) {
	svc := &mockService{
		listProperties: func(_ context.Context, _ *int64, _, _ int) (models.PropertyPage, error) {
			return models.PropertyPage{}, service.ErrInvalidLimit
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodGet, "/api/properties?limit=500", "", true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, service.ErrInvalidLimit.Error(), decode(t, rr).Error)
}

func TestListProperties_500(t *testing.T) {
	svc := &mockService{
		listProperties: func(_ context.Context, _ *int64, _, _ int) (models.PropertyPage, error) {
			return models.PropertyPage{}, errors.New("db is down")
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodGet, "/api/properties", "", true)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Failed to fetch properties", resp.Message)
	assert.NotContains(t, resp.Error, "db is down")
}

// =================================================================
// Authentication
// =================================================================

func TestProtected_401_NoToken(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodGet, "/api/properties", "", false)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Access token required", decode(t, rr).Message)
}

func TestProtected_403_BadToken(t *testing.T) {
	env := newEnv(t, &mockService{})
	req := httptest.NewRequest(http.MethodGet, "/api/contracts/13", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()

	env.srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, rr).Message)
}

func TestLogin(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodPost, "/api/auth/login", `{"token":"`+env.token+`"}`, false)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Authentication successful", resp.Message)
	assert.Equal(t, env.token, resp.Token)
	assert.Equal(t, "30d", resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.True(t, resp.User.Authenticated)
}

func TestLogin_Errors(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodPost, "/api/auth/login", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "JWT token is required", decode(t, rr).Message)

	rr = env.do(t, http.MethodPost, "/api/auth/login", `{"token":"garbage"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid or expired JWT token", decode(t, rr).Message)
}

func TestGenerateToken(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodPost, "/api/auth/generate-token", `{"secretKey":"`+secretKey+`"}`, false)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Token generated successfully", resp.Message)
	_, err := env.issuer.Verify(resp.Token)
	assert.NoError(t, err)
}

func TestGenerateToken_Errors(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodPost, "/api/auth/generate-token", `{}`, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Secret key is required to generate token", decode(t, rr).Message)

	rr = env.do(t, http.MethodPost, "/api/auth/generate-token", `{"secretKey":"wrong"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid secret key", decode(t, rr).Message)
}

func TestVerifyAndLogout(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodPost, "/api/auth/verify", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Token is valid", resp.Message)
	require.NotNil(t, resp.User)
	assert.Equal(t, "test", resp.User.GeneratedBy)

	rr = env.do(t, http.MethodPost, "/api/auth/logout", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Logged out successfully", decode(t, rr).Message)
}

// =================================================================
// GET /api/properties/{agentId}, GET /api/contracts/{propertyId}
// =================================================================

func TestListByAgent_200(t *testing.T) {
	energy := "STROM"
	svc := &mockService{
		listByAgent: func(_ context.Context, agentID int64) ([]models.AgentMeterRow, error) {
			assert.Equal(t, int64(1), agentID)
			return []models.AgentMeterRow{{Property: sampleProperty, EnergyType: &energy}}, nil
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodGet, "/api/properties/1", "", true)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Properties for agent ID 1 retrieved successfully", resp.Message)
	assert.Equal(t, 1, *resp.Count)
}

func TestListByAgent_400_BadID(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodGet, "/api/properties/abc", "", true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListContracts_200(t *testing.T) {
	svc := &mockService{
		listContracts: func(_ context.Context, propertyID int64) ([]models.Contract, error) {
			assert.Equal(t, int64(13), propertyID)
			return []models.Contract{{ID: 1, PropertyID: 13, MeterNumber: "Z-1"}}, nil
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodGet, "/api/contracts/13", "", true)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Contracts for property ID 13 retrieved successfully", resp.Message)
	var contracts []models.Contract
	require.NoError(t, json.Unmarshal(resp.Data, &contracts))
	assert.Equal(t, "Z-1", contracts[0].MeterNumber)
}

// =================================================================
// PUT /api/properties/{propertyId}
// =================================================================

func TestUpdateProperty_200(t *testing.T) {
	svc := &mockService{
		updateProperty: func(_ context.Context, id int64, upd models.PropertyUpdate) (models.Property, error) {
			assert.Equal(t, int64(13), id)
			require.NotNil(t, upd.City)
			assert.Nil(t, upd.Street)
			p := sampleProperty
			upd.ApplyTo(&p)
			return p, nil
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodPut, "/api/properties/13", `{"ort":"Bonn","unknown":1}`, true)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Property ID 13 updated successfully", resp.Message)
	var p models.Property
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Equal(t, "Bonn", p.City)
}

func TestUpdateProperty_400_NoFields(t *testing.T) {
	svc := &mockService{
		updateProperty: func(_ context.Context, _ int64, upd models.PropertyUpdate) (models.Property, error) {
			assert.True(t, upd.IsEmpty())
			return models.Property{}, service.ErrNoFields
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodPut, "/api/properties/13", `{}`, true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No fields to update", decode(t, rr).Message)
}

func TestUpdateProperty_400_SchemaViolation(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodPut, "/api/properties/13", `{"plz":50667}`, true)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "Invalid request body", resp.Message)
	assert.NotEmpty(t, resp.Error)
}

func TestUpdateProperty_404(t *testing.T) {
	svc := &mockService{
		updateProperty: func(_ context.Context, _ int64, _ models.PropertyUpdate) (models.Property, error) {
			return models.Property{}, service.ErrNotFound
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodPut, "/api/properties/99", `{"ort":"Bonn"}`, true)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Property not found", decode(t, rr).Message)
}

// =================================================================
// Fallbacks and middleware
// =================================================================

func TestRoot(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodGet, "/", "", false)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "X-Cite Property Management API is running!", body["message"])
	assert.Contains(t, body, "endpoints")
}

func TestUnknownRoute_404(t *testing.T) {
	env := newEnv(t, &mockService{})

	rr := env.do(t, http.MethodGet, "/api/nope", "", true)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Route not found", decode(t, rr).Message)
}

func TestPanic_500(t *testing.T) {
	svc := &mockService{
		listContracts: func(_ context.Context, _ int64) ([]models.Contract, error) {
			panic("boom")
		},
	}
	env := newEnv(t, svc)

	rr := env.do(t, http.MethodGet, "/api/contracts/13", "", true)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Something went wrong!", decode(t, rr).Message)
}

func TestTraceIDHeader(t *testing.T) {
	env := newEnv(t, &mockService{})
	const trace = "5f0c6c8e-9f4e-4d4a-9a39-5f3f2b0a9e11"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(web.TraceHeader, trace)
	rr := httptest.NewRecorder()
	env.srv.ServeHTTP(rr, req)
	assert.Equal(t, trace, rr.Header().Get(web.TraceHeader))

	rr = env.do(t, http.MethodGet, "/", "", false)
	assert.NotEmpty(t, rr.Header().Get(web.TraceHeader))
	assert.NotEqual(t, trace, rr.Header().Get(web.TraceHeader))
}
