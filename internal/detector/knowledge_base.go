package detector

import (
	"strings"

	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
)

// KnowledgeEntry is canonical reference data for a disease.
type KnowledgeEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Treatments  []string `json:"treatments"`
	Severity    string   `json:"severity"`
}

var knowledgeBase = []KnowledgeEntry{
	{
		Name:        "Tomato Late Blight",
		Description: "A destructive disease caused by the fungus Phytophthora infestans. It first appears as water-soaked spots that rapidly enlarge to form brown lesions.",
		Treatments: []string{
			"Remove and destroy all infected plant parts",
			"Apply copper-based fungicide or chlorothalonil according to label directions",
			"Water at the base of plants to avoid wetting foliage",
			"Ensure good air circulation by proper spacing between plants",
		},
		Severity: diagnosis.SeverityHigh,
	},
	{
		Name:        "Tomato Early Blight",
		Description: "Caused by the fungus Alternaria solani, characterized by dark spots with concentric rings forming a 'target' pattern.",
		Treatments: []string{
			"Remove infected leaves immediately",
			"Apply fungicide with chlorothalonil or mancozeb",
			"Mulch around the base of plants",
			"Rotate crops - don't plant tomatoes in the same spot for 3-4 years",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Tomato Bacterial Spot",
		Description: "Caused by Xanthomonas bacteria, presents as small, water-soaked spots that eventually turn dark and appear scabby.",
		Treatments: []string{
			"Remove infected plants and debris",
			"Apply copper-based bactericide",
			"Avoid overhead irrigation",
			"Rotate crops",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Tomato Leaf Mold",
		Description: "Caused by the fungus Passalora fulva, shows as yellow spots on the upper side of leaves with olive-green mold on the underside.",
		Treatments: []string{
			"Improve air circulation around plants",
			"Apply fungicide containing chlorothalonil or mancozeb",
			"Avoid overhead watering",
			"Remove and destroy infected leaves",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Tomato Septoria Leaf Spot",
		Description: "Caused by Septoria lycopersici fungus, appears as numerous small, circular spots with dark borders and light centers.",
		Treatments: []string{
			"Remove infected leaves",
			"Apply fungicide with chlorothalonil or copper compounds",
			"Mulch around plants to prevent spores splashing",
			"Improve air circulation",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Tomato Spider Mites",
		Description: "Tiny arachnids that cause stippling on leaves, leading to yellowing, bronzing, and leaf drop.",
		Treatments: []string{
			"Spray plants with water to knock off mites",
			"Apply insecticidal soap or neem oil",
			"Introduce predatory mites",
			"Keep plants well-watered to prevent stress",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Tomato Target Spot",
		Description: "Caused by the fungus Corynespora cassiicola, creates concentric ring patterns on leaves, stems, and fruit.",
		Treatments: []string{
			"Apply fungicide with chlorothalonil or mancozeb",
			"Prune to improve air circulation",
			"Remove infected plant debris",
			"Avoid overhead irrigation",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Tomato Yellow Leaf Curl Virus",
		Description: "A viral disease spread by whiteflies that causes leaves to curl upward, become yellow, and stunts plant growth.",
		Treatments: []string{
			"Remove and destroy infected plants",
			"Control whitefly populations with insecticidal soap",
			"Use reflective mulch to repel whiteflies",
			"Plant resistant varieties",
		},
		Severity: diagnosis.SeverityHigh,
	},
	{
		Name:        "Tomato Mosaic Virus",
		Description: "Viral infection causing mottled light and dark green patterns on leaves, stunted growth, and malformed fruit.",
		Treatments: []string{
			"Remove and destroy infected plants",
			"Wash hands and tools after handling infected plants",
			"Control insect vectors",
			"Plant resistant varieties in future seasons",
		},
		Severity: diagnosis.SeverityHigh,
	},
	{
		Name:        "Pepper Bacterial Spot",
		Description: "Xanthomonas campestris bacterial infection causing water-soaked spots on leaves that eventually turn dark and dry up.",
		Treatments: []string{
			"Apply copper-based bactericide",
			"Remove infected plant debris",
			"Avoid working with plants when wet",
			"Rotate crops",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Potato Early Blight",
		Description: "Fungal disease caused by Alternaria solani, creates dark brown spots with concentric rings on lower, older leaves first.",
		Treatments: []string{
			"Apply fungicide with chlorothalonil or copper",
			"Remove lower infected leaves",
			"Ensure adequate spacing between plants",
			"Practice crop rotation",
		},
		Severity: diagnosis.SeverityMedium,
	},
	{
		Name:        "Potato Late Blight",
		Description: "Devastating disease caused by Phytophthora infestans, presents as water-soaked spots turning brown or black with white mold on undersides.",
		Treatments: []string{
			"Apply preventative fungicide before symptoms appear",
			"Remove infected plants immediately",
			"Destroy all tubers from infected plants",
			"Plant resistant varieties",
		},
		Severity: diagnosis.SeverityHigh,
	},
	{
		Name:        "Healthy",
		Description: "No signs of disease or pest damage. The plant appears healthy with normal leaf coloration and structure.",
		Treatments: []string{
			"Continue regular watering and fertilization",
			"Monitor for any changes in appearance",
			"Maintain good air circulation",
			"Apply preventative treatments during high-risk periods",
		},
		Severity: diagnosis.SeverityHealthy,
	},
}

// LookupKnowledge finds the entry for name: an exact match first, then the
// first entry whose name contains, or is contained in, name (ignoring case).
// The returned entry is a copy.
func LookupKnowledge(name string) (KnowledgeEntry, bool) {
	for _, e := range knowledgeBase {
		if e.Name == name {
			return e.clone(), true
		}
	}

	lower := strings.ToLower(name)
	if lower == "" {
		return KnowledgeEntry{}, false
	}
	for _, e := range knowledgeBase {
		entry := strings.ToLower(e.Name)
		if strings.Contains(lower, entry) || strings.Contains(entry, lower) {
			return e.clone(), true
		}
	}
	return KnowledgeEntry{}, false
}

// KnowledgeEntries returns a copy of the whole table.
func KnowledgeEntries() []KnowledgeEntry {
	out := make([]KnowledgeEntry, len(knowledgeBase))
	for i, e := range knowledgeBase {
		out[i] = e.clone()
	}
	return out
}

func (e KnowledgeEntry) clone() KnowledgeEntry {
	e.Treatments = append([]string(nil), e.Treatments...)
	return e
}
