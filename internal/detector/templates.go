package detector

import "strings"

// treatmentTemplate supplies description and treatments for diagnoses the
// knowledge base does not cover. Templates are tried in order.
type treatmentTemplate struct {
	name        string
	matches     func(disease, lowerProse string) bool
	description string
	treatments  []string
}

func diseaseHas(keywords ...string) func(string, string) bool {
	return func(disease, _ string) bool {
		return containsAny(strings.ToLower(disease), keywords)
	}
}

func proseHas(keywords ...string) func(string, string) bool {
	return func(_, lowerProse string) bool {
		return containsAny(lowerProse, keywords)
	}
}

func either(a, b func(string, string) bool) func(string, string) bool {
	return func(disease, lowerProse string) bool {
		return a(disease, lowerProse) || b(disease, lowerProse)
	}
}

var treatmentTemplates = []treatmentTemplate{
	{
		name:        "leaf curl",
		matches:     either(diseaseHas("leaf curl"), proseHas("leaf curl")),
		description: "Leaf curl is a fungal disease caused by Taphrina deformans. It affects peach, nectarine, and related trees causing leaves to become distorted, puckered, and discolored with reddish-purple tones.",
		treatments: []string{
			"Remove and destroy all infected leaves and plant debris",
			"Apply fungicide with copper compounds during the dormant season",
			"Ensure good air circulation by proper pruning",
			"Water at the base of the plant to avoid wetting the leaves",
			"Plant resistant varieties in the future",
		},
	},
	{
		name:        "powdery mildew",
		matches:     diseaseHas("powdery mildew"),
		description: "Powdery mildew is a fungal disease that appears as white powdery spots on leaves and stems. It thrives in humid conditions but doesn't require standing water to develop.",
		treatments: []string{
			"Remove and destroy infected leaves",
			"Ensure good air circulation around plants",
			"Apply neem oil or potassium bicarbonate spray",
			"Use fungicides containing sulfur for severe cases",
			"Avoid overhead watering to prevent spreading",
		},
	},
	{
		name:        "downy mildew",
		matches:     diseaseHas("downy mildew"),
		description: "Downy mildew is a fungus-like disease that causes yellow or brown spots on the upper leaf surface with fuzzy gray-purple growth underneath. It thrives in cool, wet conditions.",
		treatments: []string{
			"Remove infected plant parts immediately",
			"Improve air circulation around plants",
			"Water at the base of plants in the morning",
			"Apply copper-based fungicides",
			"Rotate crops to prevent recurrence",
		},
	},
	{
		name:        "leaf spot",
		matches:     either(diseaseHas("leaf spot"), proseHas("spots on")),
		description: "Leaf spot diseases are caused by various fungi and bacteria, creating spots of various colors and sizes on foliage. They typically spread in wet conditions.",
		treatments: []string{
			"Remove infected leaves and destroy them",
			"Avoid overhead watering",
			"Apply fungicide containing copper or chlorothalonil",
			"Ensure adequate spacing between plants",
			"Use mulch to prevent soil splash onto leaves",
		},
	},
	{
		name:        "blight",
		matches:     diseaseHas("blight"),
		description: "Blight is a rapidly spreading disease that causes sudden death or browning of plant tissues. It can be caused by fungi or bacteria and often appears in warm, moist conditions.",
		treatments: []string{
			"Remove and destroy all infected plant parts",
			"Avoid working with plants when they're wet",
			"Apply copper-based fungicides preventatively",
			"Rotate crops and avoid planting in the same location",
			"Improve drainage in the growing area",
		},
	},
	{
		name:        "rust",
		matches:     diseaseHas("rust"),
		description: "Rust is a fungal disease characterized by orange, red, or brown pustules on the undersides of leaves. It can weaken plants by reducing photosynthesis and causing leaf drop.",
		treatments: []string{
			"Remove infected leaves and stems",
			"Apply sulfur or copper-based fungicides",
			"Avoid overhead watering",
			"Increase spacing between plants",
			"Clean garden tools after use",
		},
	},
	{
		name:        "viral",
		matches:     diseaseHas("viral"),
		description: "Viral infections in plants often cause mottling, distortion, or discoloration of leaves. There are no chemical treatments for plant viruses, so management focuses on prevention and control.",
		treatments: []string{
			"Remove and destroy infected plants",
			"Control insect vectors like aphids and whiteflies",
			"Disinfect tools between plants",
			"Use virus-resistant varieties in future plantings",
			"Maintain weed control to reduce virus reservoirs",
		},
	},
	{
		name:        "nutrient deficiency",
		matches:     diseaseHas("nutrient deficiency"),
		description: "Nutrient deficiencies cause various symptoms depending on the lacking element. Common signs include yellowing, stunted growth, and abnormal leaf development.",
		treatments: []string{
			"Conduct a soil test to identify specific deficiencies",
			"Apply balanced fertilizer appropriate for the plant",
			"Adjust soil pH if necessary for nutrient availability",
			"Use foliar feeding for quick uptake of nutrients",
			"Add organic matter to improve soil structure and nutrient retention",
		},
	},
	{
		name:        "spotted",
		matches:     proseHas("spot", "lesion", "discolor"),
		description: "The spotted pattern on the leaves suggests a fungal or bacterial infection. These pathogens typically thrive in humid conditions and may spread through water or contact.",
		treatments: []string{
			"Remove affected parts of the plant",
			"Improve air circulation around plants",
			"Avoid overhead watering",
			"Apply appropriate fungicide for the symptoms observed",
			"Consider a broad-spectrum organic treatment like neem oil",
		},
	},
}

var fallbackTemplate = treatmentTemplate{
	name:        "general",
	description: "Based on the visible symptoms, this appears to be a plant disease or disorder. The symptoms could be caused by a pathogen, environmental stress, or nutrient imbalance.",
	treatments: []string{
		"Remove affected parts of the plant",
		"Improve air circulation around plants",
		"Avoid overhead watering",
		"Apply appropriate fungicide if fungal disease is suspected",
		"Consider a broad-spectrum organic treatment like neem oil",
		"Consult with a local agricultural extension for specific identification",
	},
}

// Non-plant sentinel content.
const nonPlantDescription = "This is not a plant image. Our system works best with clear, close-up photos of tomato, potato, or pepper plant leaves."

var nonPlantTreatments = []string{
	"Please upload a clear image of tomato, potato, or pepper plant leaves",
	"Ensure good lighting when taking photos of plants",
	"Position the camera close to the leaf to capture details",
	"Try to include only the plant in the frame",
	"Avoid uploading non-plant images for diagnosis",
}

func selectTemplate(disease, lowerProse string) treatmentTemplate {
	for _, t := range treatmentTemplates {
		if t.matches(disease, lowerProse) {
			return t
		}
	}
	return fallbackTemplate
}
