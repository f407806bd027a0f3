package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nutriweek/nutriweek/internal/api/models"
	"github.com/nutriweek/nutriweek/internal/api/response"
	"github.com/nutriweek/nutriweek/internal/auth"
	"github.com/nutriweek/nutriweek/internal/flow"
	"github.com/nutriweek/nutriweek/internal/plan"
)

// MeHandler handles user account endpoints. Reads go through the flow
// session so the client always sees the same state the reducer holds.
type MeHandler struct {
	registry    *flow.Registry
	authService *auth.Service
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(registry *flow.Registry, authService *auth.Service) *MeHandler {
	return &MeHandler{
		registry:    registry,
		authService: authService,
	}
}

// session resolves the caller's flow session.
func (h *MeHandler) session(w http.ResponseWriter, r *http.Request) (*flow.Session, *auth.User, bool) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return nil, nil, false
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		response.Unauthorized(w, r, "user not found")
		return nil, nil, false
	}

	sess, err := h.registry.Session(r.Context(), userID, user.Email)
	if err != nil {
		response.InternalError(w, r, "loading account state failed")
		return nil, nil, false
	}
	return sess, user, true
}

// GetMe handles GET /v1/me - account summary.
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	sess, user, ok := h.session(w, r)
	if !ok {
		return
	}

	state := sess.State()
	me := models.Me{
		UserID:         user.ID,
		Email:          user.Email,
		CreatedAt:      models.Timestamp(user.CreatedAt),
		HasProfile:     state.Profile != nil,
		HasPlan:        state.Plan != nil,
		SavedPlanCount: len(state.SavedPlans),
		LogCount:       len(state.Logs),
	}
	response.JSON(w, r, http.StatusOK, me)
}

// ListLogs handles GET /v1/me/logs - body metric logs, oldest first.
func (h *MeHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	state := sess.State()
	items := state.Logs
	if items == nil {
		items = []plan.BodyMetricLog{}
	}
	response.JSON(w, r, http.StatusOK, models.BodyLogList{Items: items})
}

// AddLog handles POST /v1/me/logs - append a body metric log.
func (h *MeHandler) AddLog(w http.ResponseWriter, r *http.Request) {
	var log plan.BodyMetricLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	state, err := sess.Dispatch(r.Context(), flow.EventLogAdded{Log: log})
	if err != nil {
		writeFlowError(w, r, err)
		return
	}
	response.Created(w, r, "", models.BodyLogList{Items: state.Logs})
}

// ListSavedPlans handles GET /v1/me/plans - saved plan summaries,
// newest first.
func (h *MeHandler) ListSavedPlans(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.session(w, r)
	if !ok {
		return
	}

	state := sess.State()
	items := make([]models.SavedPlanSummary, len(state.SavedPlans))
	for i, saved := range state.SavedPlans {
		items[i] = models.SavedPlanSummary{
			ID:        saved.ID,
			Name:      saved.Name,
			CreatedAt: models.Timestamp(saved.CreatedAt),
		}
	}
	response.JSON(w, r, http.StatusOK, models.SavedPlanList{Items: items})
}
