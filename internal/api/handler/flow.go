package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nutriweek/nutriweek/internal/api/models"
	"github.com/nutriweek/nutriweek/internal/api/response"
	"github.com/nutriweek/nutriweek/internal/auth"
	"github.com/nutriweek/nutriweek/internal/featureflags"
	"github.com/nutriweek/nutriweek/internal/flow"
	"github.com/nutriweek/nutriweek/internal/nutrition"
	"github.com/nutriweek/nutriweek/internal/plan"
)

// FlowHandler exposes the planning flow: one session per authenticated
// user, every mutation dispatched as an event through the reducer.
type FlowHandler struct {
	registry    *flow.Registry
	authService *auth.Service
	flags       *featureflags.Service
}

// NewFlowHandler creates a new FlowHandler. flags may be nil.
func NewFlowHandler(registry *flow.Registry, authService *auth.Service, flags *featureflags.Service) *FlowHandler {
	return &FlowHandler{
		registry:    registry,
		authService: authService,
		flags:       flags,
	}
}

// session resolves the caller's flow session, hydrating it from storage
// on first use.
func (h *FlowHandler) session(w http.ResponseWriter, r *http.Request) (*flow.Session, bool) {
	userID := GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, r, "authentication required")
		return nil, false
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		response.Unauthorized(w, r, "user not found")
		return nil, false
	}

	sess, err := h.registry.Session(r.Context(), userID, user.Email)
	if err != nil {
		response.InternalError(w, r, "loading account state failed")
		return nil, false
	}
	return sess, true
}

// dispatch runs one event through the session and writes either the
// resulting state or a mapped problem.
func (h *FlowHandler) dispatch(w http.ResponseWriter, r *http.Request, sess *flow.Session, e flow.Event) {
	state, err := sess.Dispatch(r.Context(), e)
	if err != nil {
		writeFlowError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, state)
}

// generationAllowed enforces the generation kill switch before any event
// that would reach the upstream model.
func (h *FlowHandler) generationAllowed(w http.ResponseWriter, r *http.Request) bool {
	if h.flags != nil && h.flags.IsGenerationDisabled(r.Context()) {
		response.ServiceUnavailable(w, r, "plan generation is temporarily disabled")
		return false
	}
	return true
}

// applyPromptGates drops profile inputs whose prompt features are turned
// off, so flipping a flag takes effect without re-onboarding the user.
func (h *FlowHandler) applyPromptGates(ctx context.Context, profile plan.UserProfile) plan.UserProfile {
	if profile.CheatDay != "" && h.flags != nil && !h.flags.CheatDayPromptsEnabled(ctx) {
		profile.CheatDay = ""
	}
	return profile
}

// GetState handles GET /v1/flow - current session state.
func (h *FlowHandler) GetState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, sess.State())
}

// SubmitProfile handles POST /v1/flow/profile - submit the onboarding
// profile and draft a shopping list from it.
func (h *FlowHandler) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	var profile plan.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := profile.Validate(); len(errs) > 0 {
		fieldErrs := make([]models.FieldError, len(errs))
		for i, e := range errs {
			fieldErrs[i] = models.FieldError{Field: e.Field, Message: e.Message}
		}
		response.BadRequest(w, r, "validation error", fieldErrs)
		return
	}

	if !h.generationAllowed(w, r) {
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventProfileSubmitted{Profile: h.applyPromptGates(r.Context(), profile)})
}

// ConfirmList handles POST /v1/flow/shopping-list:confirm - lock in the
// selected draft items and generate the weekly plan.
func (h *FlowHandler) ConfirmList(w http.ResponseWriter, r *http.Request) {
	var req models.ConfirmListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if !h.generationAllowed(w, r) {
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventListConfirmed{Selected: req.Selected})
}

// SubstituteFood handles POST /v1/flow/plan/food:substitute - swap one
// food within the weekly plan.
func (h *FlowHandler) SubstituteFood(w http.ResponseWriter, r *http.Request) {
	var req models.FoodSubstituteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if !h.generationAllowed(w, r) {
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventFoodSwapRequested{
		DayIndex: req.DayIndex,
		MealType: req.MealType,
		FoodID:   req.FoodID,
	})
}

// SubstituteItem handles POST /v1/flow/shopping-list/item:substitute -
// swap one shopping list item.
func (h *FlowHandler) SubstituteItem(w http.ResponseWriter, r *http.Request) {
	var req models.ItemSubstituteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if req.Budget == plan.BudgetPremium && !h.premiumAllowed(r) {
		response.BadRequest(w, r, "the premium budget tier is not available", nil)
		return
	}

	if !h.generationAllowed(w, r) {
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventShoppingSwapRequested{
		Name:     req.Name,
		Category: req.Category,
		Budget:   req.Budget,
	})
}

// Consolidate handles POST /v1/flow/shopping-list:consolidate - rebuild
// the shopping list from the live plan for a stock-up horizon.
func (h *FlowHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	var req models.ConsolidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if req.Budget == plan.BudgetPremium && !h.premiumAllowed(r) {
		response.BadRequest(w, r, "the premium budget tier is not available", nil)
		return
	}

	if !h.generationAllowed(w, r) {
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventConsolidateRequested{
		Duration: req.Duration,
		Budget:   req.Budget,
	})
}

// ToggleItem handles POST /v1/flow/shopping-list/item:toggle - check or
// uncheck one shopping list item.
func (h *FlowHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	var req models.ToggleItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventItemToggled{Name: req.Name})
}

// SavePlan handles POST /v1/flow/plans - snapshot the current plan.
func (h *FlowHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	var req models.SavePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventSavePlan{Name: req.Name})
}

// ActivatePlan handles POST /v1/flow/plans/{planID}:activate - load a
// saved plan into the live slots.
func (h *FlowHandler) ActivatePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")
	if planID == "" {
		response.BadRequest(w, r, "planID is required", nil)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventLoadSavedPlan{ID: planID})
}

// DeletePlan handles DELETE /v1/flow/plans/{planID} - remove a saved plan.
func (h *FlowHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")
	if planID == "" {
		response.BadRequest(w, r, "planID is required", nil)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventDeleteSavedPlan{ID: planID})
}

// Navigate handles POST /v1/flow/navigate - switch views.
func (h *FlowHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req models.NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	target := flow.View(req.Target)
	switch target {
	case flow.ViewOnboarding, flow.ViewShoppingReview, flow.ViewDashboard,
		flow.ViewSavedPlans, flow.ViewProgress:
	default:
		response.BadRequest(w, r, "unknown navigation target", nil)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventNavigate{Target: target})
}

// Reset handles POST /v1/flow/reset - clear the current profile, plan
// and shopping list.
func (h *FlowHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventReset{})
}

// AcknowledgeError handles POST /v1/flow/error:ack - dismiss the global
// error and return to onboarding.
func (h *FlowHandler) AcknowledgeError(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, sess, flow.EventErrorAcknowledged{})
}

func (h *FlowHandler) premiumAllowed(r *http.Request) bool {
	return h.flags == nil || h.flags.IsPremiumBudgetEnabled(r.Context())
}

// writeFlowError maps flow dispatch errors onto problem responses.
func writeFlowError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, flow.ErrBusy) {
		response.Conflict(w, r, "another operation is already in progress")
		return
	}
	if errors.Is(err, nutrition.ErrNotConfigured) {
		response.ServiceUnavailable(w, r, "plan generation is not configured")
		return
	}

	var fe *flow.Error
	if errors.As(err, &fe) {
		switch fe.Class {
		case flow.ClassValidation:
			response.BadRequest(w, r, fe.Message, nil)
		case flow.ClassTransientUpstream:
			response.ServiceUnavailable(w, r, "the nutrition model is overloaded, try again shortly")
		case flow.ClassPersistence:
			response.InternalError(w, r, "saving account state failed")
		default:
			response.BadGateway(w, r, "plan generation failed")
		}
		return
	}

	response.InternalError(w, r, "unexpected error")
}
