package detector

import (
	"reflect"
	"strings"
	"testing"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
)

func TestInterpret_NonPlant(t *testing.T) {
	tests := []struct {
		name         string
		analysis     string
		plantPresent bool
	}{
		{"presence check failed", "Some leaves maybe", false},
		{"sentinel prefix", "NOT_A_PLANT: The image shows a coffee mug", true},
		{"phrase wins over disease key", "This image does not contain a plant, though the label says Tomato Late Blight", true},
		{"phrase is case insensitive", "I CANNOT IDENTIFY ANY PLANT here", true},
		{"no plant", "There is no plant in this photo, just spots of paint", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpret(tt.analysis, tt.plantPresent)
			if got.Disease != diagnosis.NonPlantDisease {
				t.Errorf("Disease = %q, want %q", got.Disease, diagnosis.NonPlantDisease)
			}
			if got.Severity != diagnosis.SeverityNotApplicable {
				t.Errorf("Severity = %q, want %q", got.Severity, diagnosis.SeverityNotApplicable)
			}
			if got.Confidence != 0.99 {
				t.Errorf("Confidence = %v, want 0.99", got.Confidence)
			}
			if got.PlantType != diagnosis.PlantTypeNone {
				t.Errorf("PlantType = %q, want None", got.PlantType)
			}
			if len(got.Treatments) != 5 {
				t.Errorf("len(Treatments) = %d, want 5", len(got.Treatments))
			}
			if !got.IsNonPlant() {
				t.Error("IsNonPlant() = false")
			}
		})
	}
}

func TestInterpret_TomatoLateBlight(t *testing.T) {
	got := Interpret("This tomato plant shows Tomato Late Blight symptoms", true)

	if got.Disease != "Tomato Late Blight" {
		t.Fatalf("Disease = %q, want Tomato Late Blight", got.Disease)
	}
	if got.Severity != diagnosis.SeverityHigh {
		t.Errorf("Severity = %q, want High", got.Severity)
	}
	if got.Confidence != 0.93 {
		t.Errorf("Confidence = %v, want 0.93", got.Confidence)
	}
	entry, _ := LookupKnowledge("Tomato Late Blight")
	if !reflect.DeepEqual(got.Treatments, entry.Treatments) {
		t.Errorf("Treatments = %v, want %v", got.Treatments, entry.Treatments)
	}
	if got.Source != SourceKnowledgeBase {
		t.Errorf("Source = %q, want knowledge_base", got.Source)
	}
}

func TestInterpret_HedgedSymptoms(t *testing.T) {
	got := Interpret("I see yellow spots with a mild infection, cannot confidently determine the exact cause", true)

	if got.Disease != "Leaf Spot" {
		t.Errorf("Disease = %q, want Leaf Spot", got.Disease)
	}
	if got.Confidence != 0.65 {
		t.Errorf("Confidence = %v, want 0.65", got.Confidence)
	}
	if got.Severity != diagnosis.SeverityLow {
		t.Errorf("Severity = %q, want Low", got.Severity)
	}
	if !got.Hedged {
		t.Error("Hedged = false, want true")
	}
	if got.Kind != KindSymptomBucket {
		t.Errorf("Kind = %q, want %q", got.Kind, KindSymptomBucket)
	}
	if got.Source != "leaf spot" {
		t.Errorf("Source = %q, want leaf spot template", got.Source)
	}
}

func TestInterpret_KnownDiseaseBeatsSymptoms(t *testing.T) {
	got := Interpret("Tomato Early Blight: dark spots with rings, blight spreading on lower leaves", true)

	if got.Disease != "Tomato Early Blight" {
		t.Errorf("Disease = %q, want Tomato Early Blight", got.Disease)
	}
	if got.Confidence != 0.90 {
		t.Errorf("Confidence = %v, want 0.90", got.Confidence)
	}
	if got.Severity != diagnosis.SeverityMedium {
		t.Errorf("Severity = %q, want Medium", got.Severity)
	}
}

func TestInterpret_Classification(t *testing.T) {
	tests := []struct {
		name       string
		analysis   string
		disease    string
		confidence float64
		severity   string
		plantType  string
		kind       Kind
	}{
		{
			name:       "healthy with plant type",
			analysis:   "This Tomato plant looks healthy and vigorous.",
			disease:    "Healthy Tomato",
			confidence: 0.93,
			severity:   diagnosis.SeverityHealthy,
			plantType:  "Tomato",
			kind:       KindHealthy,
		},
		{
			name:       "nothing recognizable defaults to healthy",
			analysis:   "A green leaf photographed outdoors.",
			disease:    "Healthy",
			confidence: 0.85,
			severity:   diagnosis.SeverityHealthy,
			kind:       KindDefault,
		},
		{
			name:       "hedged default",
			analysis:   "The image is not clear enough to say much.",
			disease:    "Healthy",
			confidence: 0.65,
			severity:   diagnosis.SeverityHealthy,
			kind:       KindDefault,
		},
		{
			name:       "generic key gets plant prefix and template",
			analysis:   "The Cucumber leaves show Powdery Mildew across the surface, widespread.",
			disease:    "Cucumber Powdery Mildew",
			confidence: 0.89,
			severity:   diagnosis.SeverityHigh,
			plantType:  "Cucumber",
			kind:       KindGenericDisease,
		},
		{
			name:       "symptom bucket with prefix",
			analysis:   "Orange pustules of rust on the Bean leaves.",
			disease:    "Bean Rust",
			confidence: 0.80,
			severity:   diagnosis.SeverityMedium,
			plantType:  "Bean",
			kind:       KindSymptomBucket,
		},
		{
			name:       "lowercase bucket keeps order",
			analysis:   "Pepper leaves with powdery mildew and some rust coloured patches",
			disease:    "Pepper Powdery Mildew",
			confidence: 0.80,
			severity:   diagnosis.SeverityLow, // "mildew" contains the cue "mild"
			plantType:  "Pepper",
			kind:       KindSymptomBucket,
		},
		{
			name:       "blight bucket is not prefixed",
			analysis:   "Potato foliage with advanced blight.",
			disease:    "Blight",
			confidence: 0.80,
			severity:   diagnosis.SeverityHigh,
			plantType:  "Potato",
			kind:       KindSymptomBucket,
		},
		{
			name:       "symptoms without a bucket",
			analysis:   "Some chlorosis between veins.",
			disease:    "Unidentified Disease",
			confidence: 0.80,
			severity:   diagnosis.SeverityMedium,
			kind:       KindSymptomBucket,
		},
		{
			name:       "known key outside the knowledge base",
			analysis:   "Signs of Corn Common Rust in early stage.",
			disease:    "Corn Common Rust",
			confidence: 0.91,
			severity:   diagnosis.SeverityLow,
			plantType:  "Corn",
			kind:       KindKnownDisease,
		},
		{
			name:       "healthy words ignored when symptoms present",
			analysis:   "Mostly healthy but with lesions near the stem.",
			disease:    "Unidentified Disease",
			confidence: 0.80,
			severity:   diagnosis.SeverityMedium,
			kind:       KindSymptomBucket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Interpret(tt.analysis, true)
			if got.Disease != tt.disease {
				t.Errorf("Disease = %q, want %q", got.Disease, tt.disease)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.confidence)
			}
			if got.Severity != tt.severity {
				t.Errorf("Severity = %q, want %q", got.Severity, tt.severity)
			}
			if got.PlantType != tt.plantType {
				t.Errorf("PlantType = %q, want %q", got.PlantType, tt.plantType)
			}
			if got.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.kind)
			}
			if len(got.Treatments) == 0 {
				t.Error("Treatments is empty")
			}
		})
	}
}

func TestInterpret_GenericNeverUsesKnowledgeBase(t *testing.T) {
	got := Interpret("Classic Leaf Spot on a Tomato leaf", true)
	if got.Disease != "Tomato Leaf Spot" {
		t.Fatalf("Disease = %q, want Tomato Leaf Spot", got.Disease)
	}
	if got.Source == SourceKnowledgeBase {
		t.Errorf("generic classification resolved through the knowledge base")
	}
	if got.Source != "leaf spot" {
		t.Errorf("Source = %q, want leaf spot", got.Source)
	}
}

func TestInterpret_EmptyAnalysis(t *testing.T) {
	got := Interpret("  \n", true)
	if got.Analysis != EmptyAnalysis {
		t.Errorf("Analysis = %q, want %q", got.Analysis, EmptyAnalysis)
	}
	if got.Disease != "Healthy" {
		t.Errorf("Disease = %q, want Healthy", got.Disease)
	}
}

func TestInterpret_FallbackTemplate(t *testing.T) {
	got := Interpret("Signs of canker on the stem.", true)
	if got.Source != fallbackTemplate.name {
		t.Fatalf("Source = %q, want %q", got.Source, fallbackTemplate.name)
	}
	if len(got.Treatments) != 6 {
		t.Errorf("len(Treatments) = %d, want 6", len(got.Treatments))
	}
	last := got.Treatments[len(got.Treatments)-1]
	if !strings.HasPrefix(last, "Consult with a local agricultural extension") {
		t.Errorf("last treatment = %q", last)
	}
}

func TestResult_FullDescription(t *testing.T) {
	got := Interpret("This tomato plant shows Tomato Late Blight symptoms", true)
	want := "AI Analysis: This tomato plant shows Tomato Late Blight symptoms\n\nDatabase Description: " + got.Description
	if got.FullDescription() != want {
		t.Errorf("FullDescription() = %q, want %q", got.FullDescription(), want)
	}
}

func TestInterpret_TreatmentsAreCopies(t *testing.T) {
	first := Interpret("Signs of canker on the stem.", true)
	first.Treatments[0] = "mutated"

	second := Interpret("Signs of canker on the stem.", true)
	if second.Treatments[0] == "mutated" {
		t.Error("template treatments were mutated through a result")
	}
}

func TestContainsNonPlantPhrase(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"NOT_A_PLANT: a cat", true},
		{"not_a_plant: lowercase prefix is not the sentinel", false},
		{"It doesn't contain a plant", true},
		{"I do not see any plant", true},
		{"A healthy Tomato leaf", false},
	}
	for _, tt := range tests {
		if got := ContainsNonPlantPhrase(tt.text); got != tt.want {
			t.Errorf("ContainsNonPlantPhrase(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestSeverityFromProse(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"severe lesions on mild tissue", diagnosis.SeverityHigh},
		{"mild spotting", diagnosis.SeverityLow},
		{"powdery mildew on the upper leaves", diagnosis.SeverityLow},
		{"early stage infection", diagnosis.SeverityLow},
		{"rust pustules", diagnosis.SeverityMedium},
	}
	for _, tt := range tests {
		if got := severityFromProse(tt.text); got != tt.want {
			t.Errorf("severityFromProse(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
