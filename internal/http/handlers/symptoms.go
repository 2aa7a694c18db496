package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/medibook/medibook-platform/internal/store"
	"github.com/medibook/medibook-platform/internal/symptoms"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// DoctorDirectory resolves doctors by specialty for recommendation joins.
type DoctorDirectory interface {
	ListDoctorsBySpecialization(ctx context.Context, specialization string) ([]store.DoctorWithUser, error)
}

// SymptomsHandler serves the symptom checker API.
type SymptomsHandler struct {
	directory DoctorDirectory
	logger    *logging.Logger
}

func NewSymptomsHandler(directory DoctorDirectory, logger *logging.Logger) *SymptomsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SymptomsHandler{directory: directory, logger: logger}
}

// ListSymptoms returns the canonical symptom vocabulary.
// GET /api/symptoms
func (h *SymptomsHandler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, symptoms.Labels)
}

// RecommendSpecialistsRequest is the reported symptom set.
type RecommendSpecialistsRequest struct {
	Symptoms []string `json:"symptoms"`
}

// SpecialtyDoctors groups available doctors under a recommended specialty.
type SpecialtyDoctors struct {
	Specialty string                 `json:"specialty"`
	Doctors   []store.DoctorWithUser `json:"doctors"`
}

// RecommendSpecialistsResponse is the ranked match result joined against the
// doctor directory.
type RecommendSpecialistsResponse struct {
	PossibleDiseases       []symptoms.DiseaseMatch `json:"possibleDiseases"`
	RecommendedSpecialists []string                `json:"recommendedSpecialists"`
	DoctorsBySpecialty     []SpecialtyDoctors      `json:"doctorsBySpecialty"`
}

// RecommendSpecialists ranks conditions against the reported symptoms and
// attaches the doctors available for each recommended specialty.
// POST /api/symptom-checker/recommend-specialists
func (h *SymptomsHandler) RecommendSpecialists(w http.ResponseWriter, r *http.Request) {
	var req RecommendSpecialistsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	result := symptoms.Match(req.Symptoms)

	resp := RecommendSpecialistsResponse{
		PossibleDiseases:       result.PossibleDiseases,
		RecommendedSpecialists: result.RecommendedSpecialists,
		DoctorsBySpecialty:     make([]SpecialtyDoctors, 0, len(result.RecommendedSpecialists)),
	}
	for _, specialty := range result.RecommendedSpecialists {
		doctors, err := h.directory.ListDoctorsBySpecialization(r.Context(), specialty)
		if err != nil {
			h.logger.Error("doctor lookup by specialty failed", "specialty", specialty, "error", err)
			doctors = nil
		}
		if doctors == nil {
			doctors = []store.DoctorWithUser{}
		}
		resp.DoctorsBySpecialty = append(resp.DoctorsBySpecialty, SpecialtyDoctors{
			Specialty: specialty,
			Doctors:   doctors,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// IdentifyDiseaseResponse is the single best condition for a symptom report.
type IdentifyDiseaseResponse struct {
	Disease    string  `json:"disease"`
	Specialty  string  `json:"specialty"`
	Confidence float64 `json:"confidence"`
}

// IdentifyDisease returns only the top-ranked condition, without the
// specialist fan-out of RecommendSpecialists.
// POST /api/symptom-checker/identify
func (h *SymptomsHandler) IdentifyDisease(w http.ResponseWriter, r *http.Request) {
	var req RecommendSpecialistsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	disease, specialty, confidence := symptoms.Identify(req.Symptoms)
	writeJSON(w, http.StatusOK, IdentifyDiseaseResponse{
		Disease:    disease,
		Specialty:  specialty,
		Confidence: confidence,
	})
}
