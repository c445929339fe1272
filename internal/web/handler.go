package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Mujanati13/xcite/internal/auth"
	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// maxBodyBytes bounds the PUT body.
const maxBodyBytes = 64 << 10

type ServiceAPI interface {
	ListProperties(ctx context.Context, agentID *int64, page, limit int) (models.PropertyPage, error)
	ListByAgent(ctx context.Context, agentID int64) ([]models.AgentMeterRow, error)
	ListContracts(ctx context.Context, propertyID int64) ([]models.Contract, error)
	UpdateProperty(ctx context.Context, propertyID int64, upd models.PropertyUpdate) (models.Property, error)
}

type TokenIssuer interface {
	TokenVerifier
	Generate(days int, generatedBy string) (string, error)
	GenerateWithSecret(secret string, days int) (string, error)
}

type Handler struct {
	svc       ServiceAPI
	tokens    TokenIssuer
	logger    *slog.Logger
	tokenDays int
	schema    *jsonschema.Schema
}

func NewHandler(svc ServiceAPI, tokens TokenIssuer, logger *slog.Logger, tokenDays int) (*Handler, error) {
	schema, err := compileUpdateSchema()
	if err != nil {
		return nil, err
	}
	if tokenDays < 1 {
		tokenDays = auth.DefaultTokenDays
	}
	return &Handler{svc: svc, tokens: tokens, logger: logger, tokenDays: tokenDays, schema: schema}, nil
}

func (h *Handler) expiresIn() string {
	return fmt.Sprintf("%dd", h.tokenDays)
}

// Root answers GET / with the endpoint overview.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "X-Cite Property Management API is running!",
		"endpoints": map[string]string{
			"GET /api/properties":             "Get all properties with optional makler_id filter and pagination",
			"GET /api/properties/:agentId":    "Get all properties for a specific agent (makler_id)",
			"GET /api/contracts/:propertyId":  "Get all contracts for a specific property (xs_liegenschaften_id)",
			"PUT /api/properties/:propertyId": "Update a specific property",
		},
		"examples": map[string]string{
			"Step 1": "GET /api/properties/1 - Show properties under agent ID 1",
			"Step 2": "GET /api/contracts/13 - Show contracts attached to property ID 13",
			"Step 3": "PUT /api/properties/13 - Update property ID 13",
		},
	})
}

// =================================================================
// auth
// =================================================================

type loginRequest struct {
	Token string `json:"token"`
}

type generateTokenRequest struct {
	SecretKey string `json:"secretKey"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, fail("JWT token is required"))
		return
	}

	claims, err := h.tokens.Verify(req.Token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, fail("Invalid or expired JWT token"))
		return
	}

	resp := ok("Authentication successful", nil)
	resp.Token = req.Token
	resp.ExpiresIn = h.expiresIn()
	resp.User = claims
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req generateTokenRequest
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	if req.SecretKey == "" {
		writeJSON(w, http.StatusBadRequest, fail("Secret key is required to generate token"))
		return
	}

	token, err := h.tokens.GenerateWithSecret(req.SecretKey, h.tokenDays)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSecretKey) {
			writeJSON(w, http.StatusUnauthorized, fail("Invalid secret key"))
			return
		}
		h.logger.ErrorContext(r.Context(), "token generation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, fail("Server error during token generation"))
		return
	}

	resp := ok("Token generated successfully", nil)
	resp.Token = token
	resp.ExpiresIn = h.expiresIn()
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	resp := ok("Token is valid", nil)
	resp.User = claims
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ok("Logged out successfully", nil))
}

// =================================================================
// properties
// =================================================================

// ListProperties serves GET /api/properties?makler_id=&page=&limit=.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	var agentID *int64
	page, limit := 1, models.DefaultPageSize
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "makler_id", query, &agentID); err != nil {
		writeJSON(w, http.StatusBadRequest, fail("Invalid parameter makler_id"))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &page); err != nil {
		writeJSON(w, http.StatusBadRequest, fail("Invalid parameter page"))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, fail("Invalid parameter limit"))
		return
	}

	result, err := h.svc.ListProperties(r.Context(), agentID, page, limit)
	if err != nil {
		h.handleError(w, r, err, "Failed to fetch properties")
		return
	}

	msg := "All properties retrieved successfully"
	if agentID != nil {
		msg = fmt.Sprintf("Properties for agent ID %d retrieved successfully", *agentID)
	}
	resp := withCount(ok(msg, result.Properties), len(result.Properties))
	resp.Pagination = &result.Pagination
	writeJSON(w, http.StatusOK, resp)
}

// ListByAgent serves GET /api/properties/{agentId}.
func (h *Handler) ListByAgent(w http.ResponseWriter, r *http.Request) {
	agentID, okID := h.pathID(w, r, "agentId")
	if !okID {
		return
	}

	rows, err := h.svc.ListByAgent(r.Context(), agentID)
	if err != nil {
		h.handleError(w, r, err, "Failed to fetch properties")
		return
	}

	msg := fmt.Sprintf("Properties for agent ID %d retrieved successfully", agentID)
	writeJSON(w, http.StatusOK, withCount(ok(msg, rows), len(rows)))
}

// ListContracts serves GET /api/contracts/{propertyId}.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	propertyID, okID := h.pathID(w, r, "propertyId")
	if !okID {
		return
	}

	contracts, err := h.svc.ListContracts(r.Context(), propertyID)
	if err != nil {
		h.handleError(w, r, err, "Failed to fetch contracts")
		return
	}

	msg := fmt.Sprintf("Contracts for property ID %d retrieved successfully", propertyID)
	writeJSON(w, http.StatusOK, withCount(ok(msg, contracts), len(contracts)))
}

// UpdateProperty serves PUT /api/properties/{propertyId}.
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, okID := h.pathID(w, r, "propertyId")
	if !okID {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fail("Invalid request body"))
		return
	}
	var doc any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &doc); err != nil {
			writeJSON(w, http.StatusBadRequest, fail("Invalid request body"))
			return
		}
	} else {
		doc = map[string]any{}
	}
	if err := h.schema.Validate(doc); err != nil {
		resp := fail("Invalid request body")
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	var upd models.PropertyUpdate
	if len(body) > 0 {
		if err := json.Unmarshal(body, &upd); err != nil {
			writeJSON(w, http.StatusBadRequest, fail("Invalid request body"))
			return
		}
	}

	p, err := h.svc.UpdateProperty(r.Context(), propertyID, upd)
	if err != nil {
		h.handleError(w, r, err, "Failed to update property")
		return
	}

	writeJSON(w, http.StatusOK, ok(fmt.Sprintf("Property ID %d updated successfully", propertyID), p))
}

// pathID binds a positive integer path parameter, answering 400 itself when it cannot.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath, chi.URLParam(r, name), &id)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, fail(fmt.Sprintf("Invalid parameter %s", name)))
		return 0, false
	}
	return id, true
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, failMessage string) {
	switch {
	case errors.Is(err, service.ErrNoFields):
		writeJSON(w, http.StatusBadRequest, fail("No fields to update"))

	case errors.Is(err, service.ErrInvalidPage),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, service.ErrInvalidID):
		resp := fail("Invalid request")
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadRequest, resp)

	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, fail("Property not found"))

	default:
		h.logger.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		resp := fail(failMessage)
		resp.Error = "internal server error"
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}
