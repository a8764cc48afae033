package detector

import (
	"strings"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
)

// diseaseKey is one entry of the ordered known-disease dictionary. Keys are
// matched case-sensitively as substrings of the model's prose.
type diseaseKey struct {
	Key        string
	Name       string  // display name
	Confidence float64 // 0 means defaultKeyConfidence
	Generic    bool    // no crop in the name
}

const (
	nonPlantConfidence   = 0.99
	defaultConfidence    = 0.85
	defaultKeyConfidence = 0.89
	hedgedConfidence     = 0.65
	bucketConfidence     = 0.80
	healthyConfidence    = 0.93
)

// nonPlantPrefix marks adapter output for images rejected by the presence check.
const nonPlantPrefix = "NOT_A_PLANT:"

// knownDiseases is scanned in order; the first key found wins. Healthy keys
// exist only for completeness and are never matched.
var knownDiseases = []diseaseKey{
	{Key: "Pepper Bacterial Spot", Name: "Pepper Bacterial Spot", Confidence: 0.94},
	{Key: "Healthy Pepper", Name: "Healthy"},
	{Key: "Potato Early Blight", Name: "Potato Early Blight", Confidence: 0.92},
	{Key: "Potato Late Blight", Name: "Potato Late Blight", Confidence: 0.93},
	{Key: "Healthy Potato", Name: "Healthy"},
	{Key: "Tomato Bacterial Spot", Name: "Tomato Bacterial Spot", Confidence: 0.91},
	{Key: "Tomato Early Blight", Name: "Tomato Early Blight", Confidence: 0.90},
	{Key: "Tomato Late Blight", Name: "Tomato Late Blight", Confidence: 0.93},
	{Key: "Tomato Leaf Mold", Name: "Tomato Leaf Mold", Confidence: 0.89},
	{Key: "Tomato Septoria Leaf Spot", Name: "Tomato Septoria Leaf Spot", Confidence: 0.92},
	{Key: "Tomato Spider Mites", Name: "Tomato Spider Mites", Confidence: 0.88},
	{Key: "Tomato Target Spot", Name: "Tomato Target Spot", Confidence: 0.87},
	{Key: "Tomato Yellow Leaf Curl Virus", Name: "Tomato Yellow Leaf Curl Virus", Confidence: 0.95},
	{Key: "Tomato Mosaic Virus", Name: "Tomato Mosaic Virus", Confidence: 0.92},
	{Key: "Healthy Tomato", Name: "Healthy"},

	{Key: "Cucumber Downy Mildew", Name: "Cucumber Downy Mildew", Confidence: 0.90},
	{Key: "Cucumber Powdery Mildew", Name: "Cucumber Powdery Mildew", Confidence: 0.91},
	{Key: "Cucumber Angular Leaf Spot", Name: "Cucumber Angular Leaf Spot", Confidence: 0.89},
	{Key: "Healthy Cucumber", Name: "Healthy"},
	{Key: "Lettuce Downy Mildew", Name: "Lettuce Downy Mildew", Confidence: 0.90},
	{Key: "Lettuce Drop", Name: "Lettuce Drop", Confidence: 0.88},
	{Key: "Healthy Lettuce", Name: "Healthy"},
	{Key: "Spinach Downy Mildew", Name: "Spinach Downy Mildew", Confidence: 0.90},
	{Key: "Healthy Spinach", Name: "Healthy"},
	{Key: "Carrot Leaf Blight", Name: "Carrot Leaf Blight", Confidence: 0.87},
	{Key: "Healthy Carrot", Name: "Healthy"},
	{Key: "Onion Purple Blotch", Name: "Onion Purple Blotch", Confidence: 0.88},
	{Key: "Healthy Onion", Name: "Healthy"},
	{Key: "Garlic Rust", Name: "Garlic Rust", Confidence: 0.88},
	{Key: "Healthy Garlic", Name: "Healthy"},
	{Key: "Broccoli Black Rot", Name: "Broccoli Black Rot", Confidence: 0.89},
	{Key: "Healthy Broccoli", Name: "Healthy"},
	{Key: "Cauliflower Black Rot", Name: "Cauliflower Black Rot", Confidence: 0.89},
	{Key: "Healthy Cauliflower", Name: "Healthy"},
	{Key: "Cabbage Black Rot", Name: "Cabbage Black Rot", Confidence: 0.89},
	{Key: "Healthy Cabbage", Name: "Healthy"},

	{Key: "Corn Northern Leaf Blight", Name: "Corn Northern Leaf Blight", Confidence: 0.90},
	{Key: "Corn Southern Rust", Name: "Corn Southern Rust", Confidence: 0.91},
	{Key: "Corn Common Rust", Name: "Corn Common Rust", Confidence: 0.91},
	{Key: "Healthy Corn", Name: "Healthy"},
	{Key: "Wheat Leaf Rust", Name: "Wheat Leaf Rust", Confidence: 0.91},
	{Key: "Wheat Stripe Rust", Name: "Wheat Stripe Rust", Confidence: 0.90},
	{Key: "Wheat Powdery Mildew", Name: "Wheat Powdery Mildew", Confidence: 0.89},
	{Key: "Healthy Wheat", Name: "Healthy"},
	{Key: "Rice Blast", Name: "Rice Blast", Confidence: 0.92},
	{Key: "Rice Brown Spot", Name: "Rice Brown Spot", Confidence: 0.90},
	{Key: "Healthy Rice", Name: "Healthy"},

	{Key: "Soybean Rust", Name: "Soybean Rust", Confidence: 0.90},
	{Key: "Soybean Bacterial Blight", Name: "Soybean Bacterial Blight", Confidence: 0.89},
	{Key: "Healthy Soybean", Name: "Healthy"},
	{Key: "Bean Rust", Name: "Bean Rust", Confidence: 0.91},
	{Key: "Bean Anthracnose", Name: "Bean Anthracnose", Confidence: 0.90},
	{Key: "Healthy Bean", Name: "Healthy"},

	{Key: "Powdery Mildew", Name: "Powdery Mildew", Confidence: 0.89, Generic: true},
	{Key: "Downy Mildew", Name: "Downy Mildew", Confidence: 0.89, Generic: true},
	{Key: "Leaf Spot", Name: "Leaf Spot", Confidence: 0.87, Generic: true},
	{Key: "Anthracnose", Name: "Anthracnose", Confidence: 0.88, Generic: true},
	{Key: "Bacterial Wilt", Name: "Bacterial Wilt", Confidence: 0.88, Generic: true},
	{Key: "Rust", Name: "Rust", Confidence: 0.90, Generic: true},
	{Key: "Viral Infection", Name: "Viral Infection", Confidence: 0.82, Generic: true},
	{Key: "Nutrient Deficiency", Name: "Nutrient Deficiency", Confidence: 0.85, Generic: true},

	{Key: "Healthy Plant", Name: "Healthy"},
}

// Lowercase phrases. A match anywhere in the lowercased prose counts.
var (
	nonPlantPhrases = []string{
		"not a plant",
		"doesn't contain a plant",
		"does not contain a plant",
		"not contain plant",
		"no plant",
		"cannot identify any plant",
		"not see any plant",
	}

	hedgePhrases = []string{
		"cannot make a confident",
		"uncertain",
		"not clear enough",
		"difficult to determine",
		"cannot provide a confident",
		"cannot confidently",
		"not confident",
	}

	symptomIndicators = []string{
		"spot", "spots", "lesion", "lesions", "chlorosis", "necrosis", "wilting",
		"yellowing", "browning", "discoloration", "mottling", "stunting", "blight",
		"rot", "mold", "mildew", "rust", "scab", "gall", "deficiency", "deficient",
		"symptom", "symptoms", "infected", "infection", "disease", "canker", "mosaic",
	}

	healthyPhrases = []string{"healthy", "no disease", "not diseased"}
)

// bucketRule maps symptom prose to a generic disease. Rules are evaluated in
// order and the first match wins.
type bucketRule struct {
	Name     string
	Keywords []string
}

const unidentifiedDisease = "Unidentified Disease"

var symptomBuckets = []bucketRule{
	{Name: "Powdery Mildew", Keywords: []string{"powdery mildew"}},
	{Name: "Downy Mildew", Keywords: []string{"downy mildew"}},
	{Name: "Leaf Spot", Keywords: []string{"leaf spot", "spots on"}},
	{Name: "Blight", Keywords: []string{"blight"}},
	{Name: "Rust", Keywords: []string{"rust"}},
	{Name: "Viral Infection", Keywords: []string{"virus", "viral"}},
	{Name: "Nutrient Deficiency", Keywords: []string{"nutrient", "deficiency"}},
	{Name: "Leaf Mold", Keywords: []string{"mold"}},
	{Name: "Rot", Keywords: []string{"rot"}},
	{Name: "Leaf Spot", Keywords: []string{"spot"}},
}

// plantTypes are matched case-sensitively, first match wins.
var plantTypes = []string{
	"Tomato", "Potato", "Pepper",
	"Cucumber", "Lettuce", "Spinach", "Carrot", "Onion", "Garlic",
	"Broccoli", "Cauliflower", "Cabbage",
	"Corn", "Wheat", "Rice",
	"Soybean", "Bean",
}

// prefixable diseases get the detected plant type prepended.
var prefixable = map[string]bool{
	"Powdery Mildew":      true,
	"Downy Mildew":        true,
	"Leaf Spot":           true,
	"Anthracnose":         true,
	"Bacterial Wilt":      true,
	"Rust":                true,
	"Viral Infection":     true,
	"Nutrient Deficiency": true,
}

// severityRule derives severity from prose when no knowledge entry applies.
type severityRule struct {
	Severity string
	Phrases  []string
}

var severityRules = []severityRule{
	{Severity: diagnosis.SeverityHigh, Phrases: []string{"severe", "advanced", "widespread"}},
	{Severity: diagnosis.SeverityLow, Phrases: []string{"mild", "early stage", "beginning"}},
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// ContainsNonPlantPhrase reports whether text reads as a not-a-plant verdict.
func ContainsNonPlantPhrase(text string) bool {
	if strings.HasPrefix(text, nonPlantPrefix) {
		return true
	}
	return containsAny(strings.ToLower(text), nonPlantPhrases)
}

// NonPlantText formats the sentinel prose for a rejected image.
func NonPlantText(explanation string) string {
	if strings.TrimSpace(explanation) == "" {
		explanation = "The image does not appear to contain plant leaves"
	}
	return nonPlantPrefix + " " + explanation
}

func matchKnownDisease(prose string) (diseaseKey, bool) {
	for _, k := range knownDiseases {
		if strings.Contains(k.Key, "Healthy") {
			continue
		}
		if strings.Contains(prose, k.Key) {
			return k, true
		}
	}
	return diseaseKey{}, false
}

func matchBucket(lower string) string {
	for _, b := range symptomBuckets {
		if containsAny(lower, b.Keywords) {
			return b.Name
		}
	}
	return unidentifiedDisease
}

func detectPlantType(prose string) string {
	for _, p := range plantTypes {
		if strings.Contains(prose, p) {
			return p
		}
	}
	return ""
}

func severityFromProse(lower string) string {
	for _, r := range severityRules {
		if containsAny(lower, r.Phrases) {
			return r.Severity
		}
	}
	return diagnosis.SeverityMedium
}
