package mode

// InitiativeLevel describes how much the system acts on its own.
type InitiativeLevel string

const (
	InitiativeNone   InitiativeLevel = "none"
	InitiativeLow    InitiativeLevel = "low"
	InitiativeMedium InitiativeLevel = "medium"
	InitiativeHigh   InitiativeLevel = "high"
)

// SuggestionFrequency describes how often suggestions are offered.
type SuggestionFrequency string

const (
	FrequencyOnRequest  SuggestionFrequency = "on-request"
	FrequencyContextual SuggestionFrequency = "contextual"
	FrequencyContinuous SuggestionFrequency = "continuous"
)

// InterventionStyle describes how output is presented to the writer.
type InterventionStyle string

const (
	StylePassive       InterventionStyle = "passive"
	StyleCollaborative InterventionStyle = "collaborative"
	StyleProactive     InterventionStyle = "proactive"
)

// Configuration is the constant behavior profile of a mode.
// Values are never mutated after construction.
type Configuration struct {
	InitiativeLevel      InitiativeLevel     `json:"initiativeLevel"`
	SuggestionFrequency  SuggestionFrequency `json:"suggestionFrequency"`
	UserControlLevel     int                 `json:"userControlLevel"` // 0..100
	InterventionStyle    InterventionStyle   `json:"interventionStyle"`
	AutoEnhancement      bool                `json:"autoEnhancement"`
	RealTimeAnalysis     bool                `json:"realTimeAnalysis"`
	ProactiveSuggestions bool                `json:"proactiveSuggestions"`
}

// ConfigurationFor returns the configuration of m. The second result is
// false when m is not a valid mode.
func ConfigurationFor(m Mode) (Configuration, bool) {
	switch m {
	case Manual:
		return Configuration{
			InitiativeLevel:     InitiativeNone,
			SuggestionFrequency: FrequencyOnRequest,
			UserControlLevel:    100,
			InterventionStyle:   StylePassive,
		}, true
	case Hybrid:
		return Configuration{
			InitiativeLevel:      InitiativeMedium,
			SuggestionFrequency:  FrequencyContextual,
			UserControlLevel:     60,
			InterventionStyle:    StyleCollaborative,
			RealTimeAnalysis:     true,
			ProactiveSuggestions: true,
		}, true
	case FullyAuto:
		return Configuration{
			InitiativeLevel:      InitiativeHigh,
			SuggestionFrequency:  FrequencyContinuous,
			UserControlLevel:     20,
			InterventionStyle:    StyleProactive,
			AutoEnhancement:      true,
			RealTimeAnalysis:     true,
			ProactiveSuggestions: true,
		}, true
	default:
		return Configuration{}, false
	}
}

// Augmentation is the request shaping derived from a Configuration.
type Augmentation struct {
	EnhancementLevel string `json:"enhancementLevel"`
	SuggestionStyle  string `json:"suggestionStyle"`
	CreativityLevel  string `json:"creativityLevel"`
}

// Augment maps initiative to enhancement level, suggestion frequency to
// suggestion style and intervention style to creativity level.
func (c Configuration) Augment() Augmentation {
	a := Augmentation{
		EnhancementLevel: "minimal",
		SuggestionStyle:  "explicit",
		CreativityLevel:  "conservative",
	}

	switch c.InitiativeLevel {
	case InitiativeLow:
		a.EnhancementLevel = "light"
	case InitiativeMedium:
		a.EnhancementLevel = "moderate"
	case InitiativeHigh:
		a.EnhancementLevel = "comprehensive"
	}

	switch c.SuggestionFrequency {
	case FrequencyContextual:
		a.SuggestionStyle = "contextual"
	case FrequencyContinuous:
		a.SuggestionStyle = "continuous"
	}

	switch c.InterventionStyle {
	case StyleCollaborative:
		a.CreativityLevel = "balanced"
	case StyleProactive:
		a.CreativityLevel = "creative"
	}

	return a
}
