// Package preferencesapi exposes the boundary endpoint through which a
// caller hands the pipeline a user's already-structured preferences —
// parsing free-form chat intent into that structure is the conversational
// front-end's job, not this service's (spec §0 non-goals).
//
// Routes:
//
//	PUT /users/{id}/preferences  → upsert a user's preference bag
package preferencesapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/clock"
	"github.com/jobmate/alertpipeline/internal/delivery"
	"github.com/jobmate/alertpipeline/internal/model"
	"github.com/jobmate/alertpipeline/internal/store"
)

// Projector re-materializes a user's profile text and embedding after a
// preference write. Satisfied by internal/projector.Projector.
type Projector interface {
	Project(ctx context.Context, userID uuid.UUID) error
}

// Sender delivers outbound text to a user's chat handle. Satisfied by
// internal/chatprovider.Sender.
type Sender interface {
	Send(ctx context.Context, handle, text string) error
}

// Handler serves the preferences boundary route.
type Handler struct {
	store     *store.Store
	projector Projector
	sender    Sender
	clock     clock.Clock
	logger    *zap.Logger
}

func NewHandler(s *store.Store, p Projector, sender Sender, c clock.Clock, logger *zap.Logger) *Handler {
	return &Handler{store: s, projector: p, sender: sender, clock: c, logger: logger}
}

// RegisterRoutes mounts the preferences route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/users/", h.handleUserAction)
}

func (h *Handler) handleUserAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "preferences" {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	userID, err := uuid.Parse(parts[1])
	if err != nil {
		jsonError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	h.upsertPreferences(w, r, userID)
}

// preferencesRequest is the closed, versioned shape the boundary accepts;
// unknown fields are dropped by json.Unmarshal rather than rejected.
type preferencesRequest struct {
	DesiredRoles      []string                `json:"desired_roles"`
	JobCategories     []string                `json:"job_categories"`
	DesiredLocations  []string                `json:"desired_locations"`
	WillingToRelocate bool                    `json:"willing_to_relocate"`
	WorkArrangements  []model.WorkArrangement `json:"work_arrangements"`
	EmploymentTypes   []model.EmploymentType  `json:"employment_types"`
	ExperienceLevel   model.ExperienceLevel   `json:"experience_level"`
	ExperienceYears   *int                    `json:"experience_years"`
	SalaryMin         *int                    `json:"salary_min"`
	SalaryMax         *int                    `json:"salary_max"`
	SalaryCurrency    string                  `json:"salary_currency"`
	RequiredSkills    []string                `json:"required_skills"`
	SoftSkills        []string                `json:"soft_skills"`
	Industries        []string                `json:"industries"`
	CompanySizes      []string                `json:"company_sizes"`
	Confirmed         bool                    `json:"confirmed"`
}

func (h *Handler) upsertPreferences(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	u, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}

	now := h.clock.Now()
	prefs := model.Preferences{
		UserID:            userID,
		DesiredRoles:      req.DesiredRoles,
		JobCategories:     req.JobCategories,
		DesiredLocations:  req.DesiredLocations,
		WillingToRelocate: req.WillingToRelocate,
		WorkArrangements:  req.WorkArrangements,
		EmploymentTypes:   req.EmploymentTypes,
		ExperienceLevel:   req.ExperienceLevel,
		ExperienceYears:   req.ExperienceYears,
		DesiredSalary: model.SalaryRange{
			Min: req.SalaryMin, Max: req.SalaryMax, Currency: req.SalaryCurrency, Period: "monthly",
		},
		RequiredSkills: req.RequiredSkills,
		SoftSkills:     req.SoftSkills,
		Industries:     req.Industries,
		CompanySizes:   req.CompanySizes,
		Confirmed:      req.Confirmed,
	}

	if err := h.store.UpsertPreferences(r.Context(), &prefs, now); err != nil {
		h.logger.Error("upsert preferences failed", zap.String("user_id", userID.String()), zap.Error(err))
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	// The embedding refresh is synchronous with the write (spec §4.4): the
	// caller gets a response only once the projector has had its chance to
	// run, even though a failed embed doesn't fail the request itself.
	if err := h.projector.Project(r.Context(), userID); err != nil {
		h.logger.Warn("preference projector failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	if err := h.sender.Send(r.Context(), u.Handle, delivery.RenderPreferenceConfirmation(prefs)); err != nil {
		h.logger.Warn("preference confirmation send failed", zap.String("user_id", userID.String()), zap.Error(err))
	}

	jsonOK(w, prefs)
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
