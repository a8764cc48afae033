package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pratik-mahalle/leafdoctor/internal/detector"
	"github.com/pratik-mahalle/leafdoctor/internal/domain/diagnosis"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/metrics"
)

// Presence is the structured verdict of the plant-presence check
type Presence struct {
	IsPlant                 bool   `json:"is_plant"`
	ContainsNonPlantObjects bool   `json:"contains_non_plant_objects"`
	PlantType               string `json:"plant_type"`
	Explanation             string `json:"explanation"`
}

// VisionOracle is an image-understanding model
type VisionOracle interface {
	// CheckPresence decides whether the image shows any plant material
	CheckPresence(ctx context.Context, img diagnosis.Image) (Presence, error)
	// Describe returns free-text disease analysis of the image
	Describe(ctx context.Context, img diagnosis.Image) (string, error)
	// Model names the model recorded on diagnoses
	Model() string
}

// Oracle call names used for metrics
const (
	callPresence  = "presence"
	callDisease   = "disease"
	callAssistant = "assistant"
)

const parseFailureExplanation = "Error parsing detection result"

// Analysis is the adapter's output for one image
type Analysis struct {
	Prose        string
	Presence     Presence
	PlantPresent bool
}

// VisionAdapter runs the two-step oracle exchange for a diagnosis.
type VisionAdapter struct {
	oracle  VisionOracle
	timeout time.Duration
	logger  *logger.Logger
}

// NewVisionAdapter creates a new vision adapter
func NewVisionAdapter(oracle VisionOracle, timeout time.Duration, log *logger.Logger) *VisionAdapter {
	return &VisionAdapter{
		oracle:  oracle,
		timeout: timeout,
		logger:  log.WithComponent("vision"),
	}
}

// Model returns the underlying model name
func (a *VisionAdapter) Model() string {
	return a.oracle.Model()
}

// Analyze checks the image for plant material and, when present, asks for a
// disease analysis. A failed or unreadable presence check is treated as a
// non-plant image. Only a failure of the disease call is returned as an error.
func (a *VisionAdapter) Analyze(ctx context.Context, img diagnosis.Image) (*Analysis, error) {
	presence, err := a.checkPresence(ctx, img)
	if err != nil {
		a.logger.WarnWithErr(err, "Plant presence check failed, treating image as non-plant")
		presence = Presence{
			IsPlant:                 false,
			ContainsNonPlantObjects: true,
			Explanation:             parseFailureExplanation,
		}
	}

	if !presence.IsPlant {
		return &Analysis{
			Prose:        detector.NonPlantText(presence.Explanation),
			Presence:     presence,
			PlantPresent: false,
		}, nil
	}

	prose, err := a.describe(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("disease analysis failed: %w", err)
	}

	return &Analysis{
		Prose:        prose,
		Presence:     presence,
		PlantPresent: true,
	}, nil
}

func (a *VisionAdapter) checkPresence(ctx context.Context, img diagnosis.Image) (Presence, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	p, err := a.oracle.CheckPresence(ctx, img)
	metrics.RecordOracleCall(callPresence, outcome(err), time.Since(start))
	return p, err
}

func (a *VisionAdapter) describe(ctx context.Context, img diagnosis.Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	prose, err := a.oracle.Describe(ctx, img)
	metrics.RecordOracleCall(callDisease, outcome(err), time.Since(start))
	return prose, err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// parsePresence decodes the presence verdict, tolerating prose around the
// JSON object.
func parsePresence(content string) (Presence, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Presence{}, fmt.Errorf("no JSON object in presence response")
	}

	var raw struct {
		IsPlant                 *bool  `json:"is_plant"`
		ContainsNonPlantObjects bool   `json:"contains_non_plant_objects"`
		PlantType               string `json:"plant_type"`
		Explanation             string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return Presence{}, fmt.Errorf("failed to decode presence response: %w", err)
	}

	p := Presence{
		ContainsNonPlantObjects: raw.ContainsNonPlantObjects,
		PlantType:               raw.PlantType,
		Explanation:             raw.Explanation,
	}
	if raw.IsPlant != nil {
		p.IsPlant = *raw.IsPlant
		return p, nil
	}
	// No verdict: fall back to the explanation wording
	p.IsPlant = strings.TrimSpace(raw.Explanation) != "" && !detector.ContainsNonPlantPhrase(raw.Explanation)
	return p, nil
}

// imageMIME returns the content type sent to the model
func imageMIME(img diagnosis.Image) string {
	if strings.HasPrefix(img.ContentType, "image/") {
		return img.ContentType
	}
	return "image/jpeg"
}

// Prompts shared by every oracle backend.
const (
	presenceSystemPrompt = "You are an advanced agricultural image analysis system specialized in detecting all types of plants, leaves, vegetables, and disease pigmentation patterns. You can identify a wide variety of plants including but not limited to tomato, potato, pepper, corn, wheat, rice, soybean, cucumber, lettuce, spinach, carrot, onion, garlic, broccoli, cauliflower, cabbage, and fruits. You must be accurate but also inclusive of all plant types. You should still classify an image as containing a plant (is_plant=true) even if it shows plant material being held by hands or alongside other objects like tables, soil, pots, or garden tools. Only set is_plant=false if there is absolutely no plant material visible. You will respond in a structured JSON format with fields: 'is_plant' (boolean), 'contains_non_plant_objects' (boolean), 'plant_type' (string - identify the type of plant if possible), and 'explanation' (string)."

	presenceUserPrompt = `Analyze this image and determine if it contains any type of plant matter - including any leaf, vegetable, fruit, plant stem, flower, or plant with disease pigmentation. Be inclusive - if ANY part of the image shows plant material, even if it's partial or being held by hands or alongside other objects like tables, soil, pots, or garden tools, mark is_plant=true. Ignore the presence of hands or other objects and focus only on whether plant material is visible. If you can identify the type of plant, include that in plant_type. Respond with structured JSON: {"is_plant": boolean, "contains_non_plant_objects": boolean, "plant_type": "specific plant type or 'unknown' if uncertain", "explanation": "your detailed reasoning here"}.`

	diseaseSystemPrompt = "You are an expert plant pathologist with comprehensive knowledge of diseases affecting all types of plants, vegetables, and crops. Your task is to analyze the plant image and identify any disease present. First, correctly identify the plant type from a broad range of possibilities including vegetables (tomato, potato, pepper, cucumber, lettuce, spinach, carrot, onion, garlic, broccoli, cauliflower, cabbage, etc.), cereal crops (wheat, rice, corn, etc.), legumes (soybean, beans, peas, etc.), fruits, ornamental plants, and trees. Then analyze for diseases and nutritional deficiencies.\n\nFocus exclusively on the plant material in the image, even if it's being held by hands or displayed alongside other objects. Ignore the presence of hands, tables, or other objects in your analysis - evaluate only the plant's health and characteristics.\n\nFor tomato, potato, and pepper plants, focus on: Bacterial Spot, Early Blight, Late Blight, Leaf Mold, Septoria Leaf Spot, Spider Mites, Target Spot, Yellow Leaf Curl Virus, Mosaic Virus. For other plants, analyze for common diseases like powdery mildew, downy mildew, rust, leaf spot, anthracnose, bacterial wilt, and nutritional deficiencies (nitrogen, phosphorus, potassium, etc.). If the plant appears healthy, explicitly state that it's healthy. For all analyses, describe the visual symptoms that led to your diagnosis and your confidence level."

	diseaseUserPrompt = "Analyze this plant image in detail. Focus only on the plant material, even if it's being held by hands or alongside other objects. First, identify what type of plant it is from the wide range of possibilities. Then determine if any disease or nutritional deficiency is present, providing a detailed description of the visual symptoms you observe. If you see signs of disease, name the specific disease if possible. If the plant appears healthy, clearly state that it's healthy. Be precise in your identification of both the plant type and any disease. If you cannot make a confident identification for either the plant type or disease, state your level of confidence and what the most likely options are rather than guessing. Do not mention or focus on hands, tables, or any other non-plant objects in your analysis."
)

// Sampling settings per call
const (
	presenceTemperature = 0.2
	presenceMaxTokens   = 500
	diseaseTemperature  = 0.3
	diseaseMaxTokens    = 1000
)
