package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

// Invalidator drops cached per-patient data after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, patientID string) error
}

// Handler serves the staff-facing clinical CRUD endpoints.
type Handler struct {
	store       Store
	invalidator Invalidator
	logger      *logging.Logger
	now         func() time.Time
}

// NewHandler creates a clinical handler. invalidator may be nil.
func NewHandler(store Store, invalidator Invalidator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:       store,
		invalidator: invalidator,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Routes mounts every clinical endpoint on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/patients", func(r chi.Router) {
		r.Post("/", h.CreatePatient)
		r.Get("/", h.ListPatients)
		r.Route("/{patientID}", func(r chi.Router) {
			r.Get("/", h.GetPatient)
			r.Patch("/", h.UpdatePatient)
			r.Post("/records", h.AddMedicalRecord)
			r.Get("/records", h.ListMedicalRecords)
			r.Post("/surgeries", h.AddSurgery)
			r.Get("/surgeries", h.ListSurgeries)
			r.Post("/post-op-notes", h.AddPostOpNote)
			r.Get("/post-op-notes", h.ListPostOpNotes)
			r.Post("/milestones", h.AddMilestone)
			r.Get("/milestones", h.ListMilestones)
		})
	})
	r.Post("/milestones/{milestoneID}/toggle", h.ToggleMilestone)
	return r
}

// ListPatientsResponse is the response for listing patients
type ListPatientsResponse struct {
	Patients []Patient `json:"patients"`
	Count    int       `json:"count"`
}

// CreatePatient handles POST /patients
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req NewPatient
	if !h.decode(w, r, &req) {
		return
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		req.CreatedBy = id.UserID
	}
	p, err := h.store.CreatePatient(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, "create patient", err)
		return
	}
	h.logger.Info("patient created", "patient_id", p.ID, "department", p.Department)
	writeJSON(w, http.StatusCreated, p)
}

// ListPatients handles GET /patients?department=&q=&limit=
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := PatientFilter{
		NameLike: r.URL.Query().Get("q"),
		Limit:    parseLimit(r, 50),
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		d, ok := ParseDepartment(dept)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "department must be one of: cardiology, oncology, surgery")
			return
		}
		filter.Department = d
	}
	patients, err := h.store.SearchPatients(r.Context(), filter)
	if err != nil {
		h.writeStoreError(w, "list patients", err)
		return
	}
	writeJSON(w, http.StatusOK, ListPatientsResponse{Patients: patients, Count: len(patients)})
}

// GetPatient handles GET /patients/{patientID}
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPatient(r.Context(), chi.URLParam(r, "patientID"))
	if err != nil {
		h.writeStoreError(w, "get patient", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePatient handles PATCH /patients/{patientID}
func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var patch PatientPatch
	if !h.decode(w, r, &patch) {
		return
	}
	patientID := chi.URLParam(r, "patientID")
	p, err := h.store.UpdatePatient(r.Context(), patientID, patch)
	if err != nil {
		h.writeStoreError(w, "update patient", err)
		return
	}
	h.invalidate(r.Context(), patientID)
	writeJSON(w, http.StatusOK, p)
}

// AddMedicalRecord handles POST /patients/{patientID}/records
func (h *Handler) AddMedicalRecord(w http.ResponseWriter, r *http.Request) {
	var req NewMedicalRecord
	if !h.decode(w, r, &req) {
		return
	}
	req.PatientID = chi.URLParam(r, "patientID")
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		req.CreatedBy = id.UserID
	}
	rec, err := h.store.AddMedicalRecord(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, "add medical record", err)
		return
	}
	h.invalidate(r.Context(), req.PatientID)
	writeJSON(w, http.StatusCreated, rec)
}

// ListMedicalRecords handles GET /patients/{patientID}/records
func (h *Handler) ListMedicalRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListMedicalRecords(r.Context(), chi.URLParam(r, "patientID"), parseLimit(r, 50))
	if err != nil {
		h.writeStoreError(w, "list medical records", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

// AddSurgery handles POST /patients/{patientID}/surgeries
func (h *Handler) AddSurgery(w http.ResponseWriter, r *http.Request) {
	var req NewSurgery
	if !h.decode(w, r, &req) {
		return
	}
	req.PatientID = chi.URLParam(r, "patientID")
	sg, err := h.store.AddSurgery(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, "add surgery", err)
		return
	}
	h.invalidate(r.Context(), req.PatientID)
	writeJSON(w, http.StatusCreated, sg)
}

// ListSurgeries handles GET /patients/{patientID}/surgeries
func (h *Handler) ListSurgeries(w http.ResponseWriter, r *http.Request) {
	surgeries, err := h.store.ListSurgeries(r.Context(), chi.URLParam(r, "patientID"), parseLimit(r, 50))
	if err != nil {
		h.writeStoreError(w, "list surgeries", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"surgeries": surgeries, "count": len(surgeries)})
}

// AddPostOpNote handles POST /patients/{patientID}/post-op-notes
func (h *Handler) AddPostOpNote(w http.ResponseWriter, r *http.Request) {
	var req NewPostOpNote
	if !h.decode(w, r, &req) {
		return
	}
	req.PatientID = chi.URLParam(r, "patientID")
	note, err := h.store.AddPostOpNote(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, "add post-op note", err)
		return
	}
	h.invalidate(r.Context(), req.PatientID)
	writeJSON(w, http.StatusCreated, note)
}

// ListPostOpNotes handles GET /patients/{patientID}/post-op-notes?order=desc
func (h *Handler) ListPostOpNotes(w http.ResponseWriter, r *http.Request) {
	order := Ascending
	if r.URL.Query().Get("order") == "desc" {
		order = Descending
	}
	notes, err := h.store.ListPostOpNotes(r.Context(), chi.URLParam(r, "patientID"), order, parseLimit(r, 50))
	if err != nil {
		h.writeStoreError(w, "list post-op notes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": notes, "count": len(notes)})
}

// AddMilestone handles POST /patients/{patientID}/milestones
func (h *Handler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var req NewMilestone
	if !h.decode(w, r, &req) {
		return
	}
	req.PatientID = chi.URLParam(r, "patientID")
	m, err := h.store.AddMilestone(r.Context(), req)
	if err != nil {
		h.writeStoreError(w, "add milestone", err)
		return
	}
	h.invalidate(r.Context(), req.PatientID)
	writeJSON(w, http.StatusCreated, m)
}

// ListMilestones handles GET /patients/{patientID}/milestones
func (h *Handler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.store.ListMilestones(r.Context(), chi.URLParam(r, "patientID"), parseLimit(r, 50))
	if err != nil {
		h.writeStoreError(w, "list milestones", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"milestones": milestones, "count": len(milestones)})
}

// ToggleMilestone handles POST /milestones/{milestoneID}/toggle
func (h *Handler) ToggleMilestone(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.ToggleMilestone(r.Context(), chi.URLParam(r, "milestoneID"), h.now())
	if err != nil {
		h.writeStoreError(w, "toggle milestone", err)
		return
	}
	h.invalidate(r.Context(), m.PatientID)
	h.logger.Info("milestone toggled", "milestone_id", m.ID, "patient_id", m.PatientID, "achieved", m.Achieved)
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) invalidate(ctx context.Context, patientID string) {
	if h.invalidator == nil || patientID == "" {
		return
	}
	if err := h.invalidator.Invalidate(ctx, patientID); err != nil {
		h.logger.Warn("failed to invalidate patient cache", "patient_id", patientID, "error", err)
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("clinical store failure", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func parseLimit(r *http.Request, def int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			return limit
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
