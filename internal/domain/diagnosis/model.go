package diagnosis

import "time"

// Diagnosis is one completed analysis of an uploaded image. It is never
// modified after creation.
type Diagnosis struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	ImageURL    string    `json:"imageUrl"`
	Disease     string    `json:"disease"`
	Confidence  float64   `json:"confidence"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Treatments  []string  `json:"treatments"`
	Metadata    Metadata  `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Metadata is stored as a JSON blob. Readers must tolerate keys they do not
// know about.
type Metadata struct {
	PlantType  string `json:"plantType"`
	AIAnalysis bool   `json:"aiAnalysis"`
	AIModel    string `json:"aiModel"`
}

// Severity levels
const (
	SeverityHealthy       = "Healthy"
	SeverityLow           = "Low"
	SeverityMedium        = "Medium"
	SeverityHigh          = "High"
	SeverityNotApplicable = "Not Applicable"
)

// Sentinel values for images without plant material
const (
	NonPlantDisease  = "Non-Plant Image"
	PlantTypeNone    = "None"
	PlantTypeUnknown = "Unknown"
)

// IsNonPlant reports whether d is the non-plant sentinel
func (d *Diagnosis) IsNonPlant() bool {
	return d.Disease == NonPlantDisease
}

// Image is an uploaded photo awaiting diagnosis
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}
