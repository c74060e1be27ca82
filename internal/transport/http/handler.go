// Package httptransport is the thin HTTP layer over the ledger engine. It
// marshals requests, enforces that an authenticated caller acts only as
// itself, and translates domain errors to statuses; business rules live in
// the ledger service.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carbonledger/internal/ledger"
	"carbonledger/internal/ledger/cache"
	"carbonledger/internal/platform/middleware"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
)

// Ledger is the engine surface the transport depends on.
type Ledger interface {
	Init(ctx context.Context) error
	RegisterProject(ctx context.Context, issuer, name, location, projectType, description string) (domain.ProjectID, error)
	IssueCredits(ctx context.Context, issuer string, projectID domain.ProjectID, amount int64, vintage domain.Vintage, recipient string) (ledger.CreditBatch, error)
	Transfer(ctx context.Context, from, to string, amount int64) error
	Retire(ctx context.Context, owner string, amount int64) (domain.Amount, error)
	GetProject(ctx context.Context, projectID domain.ProjectID) (ledger.Project, error)
	GetAllProjects(ctx context.Context) ([]ledger.Project, error)
	GetCredits(ctx context.Context, address string) ([]ledger.Lot, error)
}

// Handler handles ledger endpoints. Balance and total-retired reads go
// through the cache layer; mutations invalidate the affected entries.
type Handler struct {
	engine      Ledger
	reads       *cache.CachedReads
	logger      *slog.Logger
	authEnabled bool
}

func NewHandler(engine Ledger, reads *cache.CachedReads, logger *slog.Logger, authEnabled bool) *Handler {
	return &Handler{
		engine:      engine,
		reads:       reads,
		logger:      logger,
		authEnabled: authEnabled,
	}
}

// requireCaller enforces that the authenticated token acts as actor. When
// auth is disabled the surrounding platform vouches for the caller.
func (h *Handler) requireCaller(ctx context.Context, actor string) error {
	if !h.authEnabled {
		return nil
	}
	caller := middleware.GetCallerAddress(ctx)
	if caller != actor {
		return dErrors.New(dErrors.CodeUnauthorized, "token does not authorize acting as "+actor)
	}
	return nil
}

func (h *Handler) handleInit(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Init(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}

func (h *Handler) handleRegisterProject(w http.ResponseWriter, r *http.Request) {
	var req registerProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.requireCaller(r.Context(), req.Issuer); err != nil {
		WriteError(w, err)
		return
	}
	projectID, err := h.engine.RegisterProject(r.Context(), req.Issuer, req.Name, req.Location, req.ProjectType, req.Description)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, registerProjectResponse{ProjectID: projectID})
}

func (h *Handler) handleIssueCredits(w http.ResponseWriter, r *http.Request) {
	var req issueCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.requireCaller(r.Context(), req.Issuer); err != nil {
		WriteError(w, err)
		return
	}
	batch, err := h.engine.IssueCredits(r.Context(), req.Issuer, domain.ProjectID(req.ProjectID), req.Amount, domain.Vintage(req.Vintage), req.Recipient)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.reads.InvalidateBalances(r.Context(), req.Recipient)
	WriteJSON(w, http.StatusCreated, batch)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.requireCaller(r.Context(), req.From); err != nil {
		WriteError(w, err)
		return
	}
	if err := h.engine.Transfer(r.Context(), req.From, req.To, req.Amount); err != nil {
		WriteError(w, err)
		return
	}
	h.reads.InvalidateBalances(r.Context(), req.From, req.To)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
}

func (h *Handler) handleRetire(w http.ResponseWriter, r *http.Request) {
	var req retireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.requireCaller(r.Context(), req.Owner); err != nil {
		WriteError(w, err)
		return
	}
	total, err := h.engine.Retire(r.Context(), req.Owner, req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.reads.InvalidateBalances(r.Context(), req.Owner)
	h.reads.InvalidateTotalRetired(r.Context())
	WriteJSON(w, http.StatusOK, retireResponse{TotalRetired: total})
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "project_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid project id"))
		return
	}
	project, err := h.engine.GetProject(r.Context(), domain.ProjectID(id))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.engine.GetAllProjects(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, projectsResponse{Projects: projects})
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	balance, err := h.reads.Balance(r.Context(), address)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, balanceResponse{Address: address, Balance: balance})
}

func (h *Handler) handleCredits(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	credits, err := h.engine.GetCredits(r.Context(), address)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, creditsResponse{Address: address, Credits: credits})
}

func (h *Handler) handleTotalRetired(w http.ResponseWriter, r *http.Request) {
	total, err := h.reads.TotalRetired(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, totalRetiredResponse{TotalRetired: total})
}
