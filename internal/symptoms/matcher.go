package symptoms

import (
	"math"
	"sort"
)

// Labels is the canonical ordered symptom vocabulary. Reported symptoms are
// encoded as a binary vector over this list; labels outside it are ignored.
var Labels = []string{
	"fever", "cough", "shortness_of_breath", "fatigue", "headache",
	"sore_throat", "muscle_pain", "loss_of_taste_or_smell", "chest_pain",
	"runny_nose", "nausea", "vomiting", "diarrhea", "rash", "joint_pain",
	"abdominal_pain", "dizziness", "chills", "weight_loss", "night_sweats",
	"blurred_vision", "increased_thirst", "frequent_urination", "irregular_heartbeat",
	"swollen_lymph_nodes", "blood_in_stool", "blood_in_urine", "ear_pain", "eye_pain",
	"back_pain",
}

// Condition pairs a known condition with its canonical symptom pattern and
// the specialty that treats it.
type Condition struct {
	Name      string
	Specialty string
	Symptoms  []string
}

// Conditions is the reference catalog the matcher ranks against. Some
// pattern entries fall outside the canonical vocabulary; they contribute
// nothing to the encoded vector, which keeps those conditions rankable but
// slightly under-specified on purpose.
var Conditions = []Condition{
	{
		Name:      "Common Cold",
		Specialty: "General Practitioner",
		Symptoms:  []string{"fever", "cough", "sore_throat", "runny_nose", "headache"},
	},
	{
		Name:      "Influenza (Flu)",
		Specialty: "General Practitioner",
		Symptoms:  []string{"fever", "cough", "fatigue", "muscle_pain", "headache", "chills"},
	},
	{
		Name:      "COVID-19",
		Specialty: "Infectious Disease",
		Symptoms:  []string{"fever", "cough", "shortness_of_breath", "fatigue", "loss_of_taste_or_smell", "sore_throat"},
	},
	{
		Name:      "Pneumonia",
		Specialty: "Pulmonologist",
		Symptoms:  []string{"fever", "cough", "shortness_of_breath", "chest_pain", "fatigue"},
	},
	{
		Name:      "Asthma",
		Specialty: "Pulmonologist",
		Symptoms:  []string{"shortness_of_breath", "chest_pain", "cough"},
	},
	{
		Name:      "Heart Disease",
		Specialty: "Cardiologist",
		Symptoms:  []string{"chest_pain", "shortness_of_breath", "fatigue", "irregular_heartbeat"},
	},
	{
		Name:      "Gastroenteritis",
		Specialty: "Gastroenterologist",
		Symptoms:  []string{"nausea", "vomiting", "diarrhea", "abdominal_pain"},
	},
	{
		Name:      "Irritable Bowel Syndrome (IBS)",
		Specialty: "Gastroenterologist",
		Symptoms:  []string{"abdominal_pain", "diarrhea", "bloating"},
	},
	{
		Name:      "Urinary Tract Infection (UTI)",
		Specialty: "Urologist",
		Symptoms:  []string{"frequent_urination", "blood_in_urine", "abdominal_pain"},
	},
	{
		Name:      "Migraine",
		Specialty: "Neurologist",
		Symptoms:  []string{"headache", "blurred_vision", "nausea"},
	},
	{
		Name:      "Diabetes Type 2",
		Specialty: "Endocrinologist",
		Symptoms:  []string{"increased_thirst", "frequent_urination", "fatigue", "weight_loss"},
	},
	{
		Name:      "Allergic Rhinitis",
		Specialty: "Allergist",
		Symptoms:  []string{"runny_nose", "sneezing", "itchy_eyes"},
	},
	{
		Name:      "Osteoarthritis",
		Specialty: "Rheumatologist",
		Symptoms:  []string{"joint_pain", "stiffness", "swelling"},
	},
	{
		Name:      "Rheumatoid Arthritis",
		Specialty: "Rheumatologist",
		Symptoms:  []string{"joint_pain", "joint_swelling", "fatigue", "fever"},
	},
	{
		Name:      "Depression",
		Specialty: "Psychiatrist",
		Symptoms:  []string{"fatigue", "loss_of_interest", "weight_changes", "sleep_disturbances"},
	},
	{
		Name:      "Anxiety Disorder",
		Specialty: "Psychiatrist",
		Symptoms:  []string{"excessive_worry", "restlessness", "fatigue", "muscle_tension"},
	},
}

// DiseaseMatch is one ranked candidate condition.
type DiseaseMatch struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of matching a reported symptom set.
type Result struct {
	PossibleDiseases       []DiseaseMatch `json:"possibleDiseases"`
	RecommendedSpecialists []string       `json:"recommendedSpecialists"`
}

// encode maps a symptom set onto the canonical vocabulary as a binary
// vector. Unrecognized labels are dropped.
func encode(reported []string) []float64 {
	set := make(map[string]bool, len(reported))
	for _, s := range reported {
		set[s] = true
	}
	vec := make([]float64, len(Labels))
	for i, label := range Labels {
		if set[label] {
			vec[i] = 1
		}
	}
	return vec
}

// similarity converts a euclidean distance to a score in (0, 1], higher
// meaning closer.
func similarity(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum))
}

// Match ranks every known condition against the reported symptoms and
// returns the top three candidates plus the distinct specialties among them,
// in order of first appearance. An empty report short-circuits to a general
// practitioner referral.
func Match(reported []string) Result {
	if len(reported) == 0 {
		return Result{
			PossibleDiseases:       []DiseaseMatch{},
			RecommendedSpecialists: []string{"General Practitioner"},
		}
	}

	vec := encode(reported)
	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(Conditions))
	for i, c := range Conditions {
		ranked[i] = scored{index: i, score: similarity(vec, encode(c.Symptoms))}
	}
	// Ties keep catalog order, so identical inputs always rank identically.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}

	result := Result{
		PossibleDiseases:       make([]DiseaseMatch, 0, len(top)),
		RecommendedSpecialists: make([]string, 0, len(top)),
	}
	seen := make(map[string]bool, len(top))
	for _, m := range top {
		c := Conditions[m.index]
		result.PossibleDiseases = append(result.PossibleDiseases, DiseaseMatch{Name: c.Name, Confidence: m.score})
		if !seen[c.Specialty] {
			seen[c.Specialty] = true
			result.RecommendedSpecialists = append(result.RecommendedSpecialists, c.Specialty)
		}
	}
	return result
}

// Identify returns only the single best candidate. An empty report maps to
// an unknown condition with zero confidence.
func Identify(reported []string) (disease, specialty string, confidence float64) {
	if len(reported) == 0 {
		return "Unknown", "General Practitioner", 0
	}
	vec := encode(reported)
	best, bestScore := 0, -1.0
	for i, c := range Conditions {
		if s := similarity(vec, encode(c.Symptoms)); s > bestScore {
			best, bestScore = i, s
		}
	}
	return Conditions[best].Name, Conditions[best].Specialty, bestScore
}
