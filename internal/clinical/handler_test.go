package clinical

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/postop-assistant/internal/auth"
	"github.com/wolfman30/postop-assistant/pkg/logging"
)

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, patientID string) error {
	r.ids = append(r.ids, patientID)
	return nil
}

func newTestHandler(t *testing.T) (*MemoryStore, *recordingInvalidator, http.Handler) {
	t.Helper()
	store := NewMemoryStore()
	inv := &recordingInvalidator{}
	logger := logging.NewWithOptions(logging.Options{Level: "error", Output: &strings.Builder{}})
	return store, inv, NewHandler(store, inv, logger).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "staff-1", Role: "staff"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateAndGetPatient(t *testing.T) {
	_, _, h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/patients", `{"full_name":"Priya Sharma","department":"cardiology","date_of_birth":"1990-05-01T00:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p Patient
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "staff-1", p.CreatedBy)
	assert.Equal(t, StatusAdmitted, p.Status)

	rec = do(t, h, http.MethodGet, "/patients/"+p.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/patients/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_CreatePatientValidation(t *testing.T) {
	_, _, h := newTestHandler(t)

	rec := do(t, h, http.MethodPost, "/patients", `{"full_name":"X","department":"pediatrics"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "department must be one of")

	rec = do(t, h, http.MethodPost, "/patients", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListPatientsByDepartment(t *testing.T) {
	store, _, h := newTestHandler(t)
	newTestPatient(t, store, "Priya Sharma", DepartmentCardiology)
	newTestPatient(t, store, "John Carter", DepartmentOncology)

	rec := do(t, h, http.MethodGet, "/patients?department=cardiology", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListPatientsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Priya Sharma", resp.Patients[0].FullName)

	rec = do(t, h, http.MethodGet, "/patients?department=dermatology", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_PostOpNotePainOutOfRange(t *testing.T) {
	store, inv, h := newTestHandler(t)
	p := newTestPatient(t, store, "Priya Sharma", DepartmentCardiology)

	rec := do(t, h, http.MethodPost, "/patients/"+p.ID+"/post-op-notes", `{"day_number":1,"pain_level":11}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "pain_level must be between 0 and 10")
	assert.Empty(t, inv.ids)

	rec = do(t, h, http.MethodPost, "/patients/"+p.ID+"/post-op-notes", `{"day_number":1,"pain_level":3,"vital_signs":{"blood_pressure":"120/80","heart_rate":80}}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{p.ID}, inv.ids)

	rec = do(t, h, http.MethodPost, "/patients/unknown/post-op-notes", `{"day_number":1,"pain_level":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ToggleMilestone(t *testing.T) {
	store, inv, h := newTestHandler(t)
	p := newTestPatient(t, store, "Marcus Lee", DepartmentSurgery)

	rec := do(t, h, http.MethodPost, "/patients/"+p.ID+"/milestones", `{"milestone_type":"Walk unassisted"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var m RecoveryMilestone
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))

	rec = do(t, h, http.MethodPost, "/milestones/"+m.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	assert.True(t, m.Achieved)
	assert.NotNil(t, m.AchievedDate)
	assert.Equal(t, []string{p.ID, p.ID}, inv.ids)

	rec = do(t, h, http.MethodPost, "/milestones/missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_UpdatePatientInvalidates(t *testing.T) {
	store, inv, h := newTestHandler(t)
	p := newTestPatient(t, store, "Elena Rossi", DepartmentOncology)

	rec := do(t, h, http.MethodPatch, "/patients/"+p.ID, `{"status":"discharged"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{p.ID}, inv.ids)

	rec = do(t, h, http.MethodPatch, "/patients/"+p.ID, `{"status":"gone"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
