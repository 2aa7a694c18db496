package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/medibook-platform/internal/store"
	"github.com/medibook/medibook-platform/internal/symptoms"
)

type fakeDirectory struct {
	bySpecialty map[string][]store.DoctorWithUser
}

func (f *fakeDirectory) ListDoctorsBySpecialization(_ context.Context, specialization string) ([]store.DoctorWithUser, error) {
	return f.bySpecialty[specialization], nil
}

func TestListSymptoms(t *testing.T) {
	h := NewSymptomsHandler(&fakeDirectory{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/symptoms", nil)
	rec := httptest.NewRecorder()
	h.ListSymptoms(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var labels []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &labels))
	assert.Equal(t, symptoms.Labels, labels)
	assert.Contains(t, labels, "loss_of_taste_or_smell")
}

func TestRecommendSpecialistsExactMatch(t *testing.T) {
	dir := &fakeDirectory{bySpecialty: map[string][]store.DoctorWithUser{
		"Infectious Disease": {
			{Doctor: store.Doctor{ID: 3, UserID: 11, Specialization: "Infectious Disease"},
				User: store.User{ID: 11, FullName: "Dr. Amara Okafor"}},
		},
	}}
	h := NewSymptomsHandler(dir, nil)

	body := `{"symptoms":["fever","cough","shortness_of_breath","fatigue","loss_of_taste_or_smell","sore_throat"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/symptom-checker/recommend-specialists", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RecommendSpecialists(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RecommendSpecialistsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotEmpty(t, resp.PossibleDiseases)
	assert.Equal(t, "COVID-19", resp.PossibleDiseases[0].Name)
	assert.InDelta(t, 1.0, resp.PossibleDiseases[0].Confidence, 1e-9)
	assert.Len(t, resp.PossibleDiseases, 3)

	assert.Contains(t, resp.RecommendedSpecialists, "Infectious Disease")
	require.NotEmpty(t, resp.DoctorsBySpecialty)
	assert.Equal(t, "Infectious Disease", resp.DoctorsBySpecialty[0].Specialty)
	require.Len(t, resp.DoctorsBySpecialty[0].Doctors, 1)
	assert.Equal(t, "Dr. Amara Okafor", resp.DoctorsBySpecialty[0].Doctors[0].User.FullName)
}

func TestRecommendSpecialistsEmptyInput(t *testing.T) {
	h := NewSymptomsHandler(&fakeDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/symptom-checker/recommend-specialists", strings.NewReader(`{"symptoms":[]}`))
	rec := httptest.NewRecorder()
	h.RecommendSpecialists(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp RecommendSpecialistsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Empty(t, resp.PossibleDiseases)
	assert.Equal(t, []string{"General Practitioner"}, resp.RecommendedSpecialists)
	require.Len(t, resp.DoctorsBySpecialty, 1)
	assert.Equal(t, "General Practitioner", resp.DoctorsBySpecialty[0].Specialty)
	assert.NotNil(t, resp.DoctorsBySpecialty[0].Doctors)
}

func TestIdentifyDisease(t *testing.T) {
	h := NewSymptomsHandler(&fakeDirectory{}, nil)

	body := `{"symptoms":["nausea","vomiting","diarrhea","abdominal_pain"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/symptom-checker/identify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.IdentifyDisease(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp IdentifyDiseaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Gastroenteritis", resp.Disease)
	assert.Equal(t, "Gastroenterologist", resp.Specialty)
	assert.InDelta(t, 1.0, resp.Confidence, 1e-9)
}

func TestIdentifyDiseaseEmptyInput(t *testing.T) {
	h := NewSymptomsHandler(&fakeDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/symptom-checker/identify", strings.NewReader(`{"symptoms":[]}`))
	rec := httptest.NewRecorder()
	h.IdentifyDisease(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp IdentifyDiseaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Unknown", resp.Disease)
	assert.Equal(t, "General Practitioner", resp.Specialty)
	assert.Zero(t, resp.Confidence)
}

func TestRecommendSpecialistsBadJSON(t *testing.T) {
	h := NewSymptomsHandler(&fakeDirectory{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/symptom-checker/recommend-specialists", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.RecommendSpecialists(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
