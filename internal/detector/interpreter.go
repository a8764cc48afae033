// Package detector turns free-text plant analysis from a vision model into a
// structured diagnosis. Classification is a fixed, ordered list of rules; the
// first rule that applies decides the disease and its confidence.
package detector

import (
	"strings"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
)

// Kind says which rule classified a diagnosis.
type Kind string

const (
	KindNonPlant       Kind = "non_plant"
	KindKnownDisease   Kind = "known_disease"
	KindGenericDisease Kind = "generic_disease"
	KindSymptomBucket  Kind = "symptom_bucket"
	KindHealthy        Kind = "healthy"
	KindDefault        Kind = "default"
)

// Generic reports whether the classification names a disease family rather
// than a specific crop disease. Generic results always use a template.
func (k Kind) Generic() bool {
	return k == KindGenericDisease || k == KindSymptomBucket
}

// EmptyAnalysis stands in for a model reply with no text.
const EmptyAnalysis = "I couldn't analyze the image properly."

// Source values for Result.Source
const (
	SourceKnowledgeBase = "knowledge_base"
	SourceNonPlant      = "non_plant"
)

// Result is an interpreted analysis.
type Result struct {
	Disease     string
	PlantType   string // empty when no plant type was named
	Confidence  float64
	Severity    string
	Description string // resolved description, without the model prose
	Treatments  []string
	Analysis    string // the model prose as interpreted
	Kind        Kind
	Hedged      bool
	Source      string // knowledge_base, non_plant or a template name
}

// FullDescription is the persisted description: the model prose followed by
// the resolved text.
func (r Result) FullDescription() string {
	return "AI Analysis: " + r.Analysis + "\n\nDatabase Description: " + r.Description
}

// IsNonPlant reports whether r is the non-plant sentinel
func (r Result) IsNonPlant() bool {
	return r.Kind == KindNonPlant
}

// prose is the analysis with the facts every rule needs computed once.
type prose struct {
	text        string
	lower       string
	hedged      bool
	hasSymptoms bool
}

func newProse(text string) prose {
	lower := strings.ToLower(text)
	return prose{
		text:        text,
		lower:       lower,
		hedged:      containsAny(lower, hedgePhrases),
		hasSymptoms: containsAny(lower, symptomIndicators),
	}
}

type classification struct {
	disease    string
	confidence float64
	kind       Kind
}

type classifyRule struct {
	name  string
	apply func(p prose) (classification, bool)
}

// classifyRules run in order. Non-plant detection is handled before these.
var classifyRules = []classifyRule{
	{
		name: "known disease",
		apply: func(p prose) (classification, bool) {
			k, ok := matchKnownDisease(p.text)
			if !ok {
				return classification{}, false
			}
			conf := k.Confidence
			if conf == 0 {
				conf = defaultKeyConfidence
			}
			kind := KindKnownDisease
			if k.Generic {
				kind = KindGenericDisease
			}
			return classification{disease: k.Name, confidence: conf, kind: kind}, true
		},
	},
	{
		name: "symptom bucket",
		apply: func(p prose) (classification, bool) {
			if !p.hasSymptoms {
				return classification{}, false
			}
			return classification{
				disease:    matchBucket(p.lower),
				confidence: hedgeOr(p, bucketConfidence),
				kind:       KindSymptomBucket,
			}, true
		},
	},
	{
		name: "explicit healthy",
		apply: func(p prose) (classification, bool) {
			if !containsAny(p.lower, healthyPhrases) {
				return classification{}, false
			}
			return classification{
				disease:    "Healthy",
				confidence: hedgeOr(p, healthyConfidence),
				kind:       KindHealthy,
			}, true
		},
	},
	{
		name: "default",
		apply: func(p prose) (classification, bool) {
			return classification{
				disease:    "Healthy",
				confidence: hedgeOr(p, defaultConfidence),
				kind:       KindDefault,
			}, true
		},
	},
}

// hedgeOr returns the hedged confidence when the prose hedges. It only
// applies to rules that ran without a known disease key.
func hedgeOr(p prose, conf float64) float64 {
	if p.hedged {
		return hedgedConfidence
	}
	return conf
}

// Interpret classifies analysis. plantPresent is the verdict of the
// presence check; false forces the non-plant sentinel. Interpret never
// fails: every input yields a storable result.
func Interpret(analysis string, plantPresent bool) Result {
	if strings.TrimSpace(analysis) == "" {
		analysis = EmptyAnalysis
	}

	if !plantPresent || ContainsNonPlantPhrase(analysis) {
		return nonPlantResult(analysis)
	}

	p := newProse(analysis)

	var c classification
	for _, rule := range classifyRules {
		if got, ok := rule.apply(p); ok {
			c = got
			break
		}
	}

	plantType := detectPlantType(p.text)
	disease := c.disease
	if plantType != "" {
		switch {
		case disease == "Healthy":
			disease = "Healthy " + plantType
		case prefixable[disease]:
			disease = plantType + " " + disease
		}
	}

	res := Result{
		Disease:    disease,
		PlantType:  plantType,
		Confidence: c.confidence,
		Analysis:   analysis,
		Kind:       c.kind,
		Hedged:     p.hedged,
	}

	if !c.kind.Generic() {
		if entry, ok := LookupKnowledge(disease); ok {
			res.Description = entry.Description
			res.Treatments = entry.Treatments
			res.Severity = entry.Severity
			res.Source = SourceKnowledgeBase
			return res
		}
	}

	tmpl := selectTemplate(disease, p.lower)
	res.Description = tmpl.description
	res.Treatments = append([]string(nil), tmpl.treatments...)
	res.Severity = severityFromProse(p.lower)
	res.Source = tmpl.name
	return res
}

func nonPlantResult(analysis string) Result {
	return Result{
		Disease:     diagnosis.NonPlantDisease,
		PlantType:   diagnosis.PlantTypeNone,
		Confidence:  nonPlantConfidence,
		Severity:    diagnosis.SeverityNotApplicable,
		Description: nonPlantDescription,
		Treatments:  append([]string(nil), nonPlantTreatments...),
		Analysis:    analysis,
		Kind:        KindNonPlant,
		Source:      SourceNonPlant,
	}
}
