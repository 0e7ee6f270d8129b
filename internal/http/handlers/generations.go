package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"headshot-server/internal/generation"
)

type generateRequest struct {
	Image string `json:"image"`
	Style string `json:"style"`
}

type jobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// GenerationsCreate submits a new generation job. Anonymous callers are
// allowed; authenticated ones must be able to afford the generation.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Image == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image required")
		return
	}
	jobID, err := a.Generations.Start(r.Context(), a.optionalAccountID(r), req.Image, req.Style)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{JobID: jobID, Status: "pending"})
}

// statusWaitOptions bounds a ?wait=true status request well below typical
// proxy timeouts; on expiry the handler answers with the pending status.
var statusWaitOptions = generation.PollOptions{Interval: time.Second, Timeout: 25 * time.Second}

// GenerationStatus reports the upstream job state. With ?wait=true the
// request blocks until the job turns terminal or the wait window closes.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	var (
		status *generation.JobStatus
		err    error
	)
	if r.URL.Query().Get("wait") == "true" {
		status, err = a.Generations.AwaitTerminal(r.Context(), jobID, statusWaitOptions)
		if errors.Is(err, generation.ErrPollTimeout) && status != nil {
			err = nil
		}
	} else {
		status, err = a.Generations.Status(r.Context(), jobID)
	}
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"job_id": status.ID,
		"status": string(status.State),
		"error":  status.Error,
	})
}

type materializeRequest struct {
	Style string `json:"style"`
}

// GenerationMaterialize persists a finished job as a locked record. Only the
// blurred preview is returned; the original stays behind the unlock.
func (a *App) GenerationMaterialize(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	var req materializeRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	result, err := a.Generations.Materialize(r.Context(), jobID, a.optionalAccountID(r), req.Style)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"generation_id": result.GenerationID,
		"preview":       result.Preview,
		"unlocked":      false,
	})
}

func (a *App) GenerationUnlock(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	generationID := chi.URLParam(r, "id")
	if generationID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	original, err := a.Generations.Unlock(r.Context(), generationID, accountID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"generation_id": generationID,
		"image":         original,
		"unlocked":      true,
	})
}

type enhanceRequest struct {
	Kind string `json:"kind"`
}

func (a *App) GenerationEnhance(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	generationID := chi.URLParam(r, "id")
	if generationID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	jobID, err := a.Generations.Enhance(r.Context(), generationID, accountID, req.Kind)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{JobID: jobID, Status: "pending"})
}

type enhancementMaterializeRequest struct {
	ParentID string `json:"parent_id"`
	Kind     string `json:"kind"`
}

// EnhancementMaterialize persists a finished enhancement as a pre-unlocked
// child of its parent.
func (a *App) EnhancementMaterialize(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	var req enhancementMaterializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ParentID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "parent_id required")
		return
	}
	result, err := a.Generations.MaterializeEnhancement(r.Context(), jobID, req.ParentID, accountID, req.Kind)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"generation_id": result.GenerationID,
		"parent_id":     req.ParentID,
		"image":         result.Image,
		"unlocked":      true,
	})
}

func (a *App) GenerationsList(w http.ResponseWriter, r *http.Request) {
	accountID := a.currentAccountID(r)
	if accountID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing account context")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := a.Generations.ListRecent(r.Context(), accountID, limit)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"generations": items})
}

// optionalAccountID returns a pointer for routes where anonymous access is
// allowed.
func (a *App) optionalAccountID(r *http.Request) *string {
	if id := a.currentAccountID(r); id != "" {
		return &id
	}
	return nil
}
