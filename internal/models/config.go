package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// OCR config
	OCR OCRConfig `yaml:"ocr"`

	// Column detection config
	Layout LayoutConfig `yaml:"layout"`

	// AI config
	AI AIConfig `yaml:"ai"`
}

// OCRConfig represents recognition-specific configuration
type OCRConfig struct {
	Languages             string    `yaml:"languages"`               // tesseract language packs, e.g. "rus+eng"
	Blacklist             string    `yaml:"blacklist"`               // characters the engine must never emit
	PageSegModes          []int     `yaml:"page_seg_modes"`          // tesseract PSM values to try
	ExtraAngles           []float64 `yaml:"extra_angles"`            // skew angles beyond 0/90/180/270
	Workers               int       `yaml:"workers"`                 // parallel candidate matrix cells
	MinConfidence         float64   `yaml:"min_confidence"`          // fragment floor, baseline variants
	AdaptiveMinConfidence float64   `yaml:"adaptive_min_confidence"` // fragment floor, adaptive variant
}

// LayoutConfig represents column-detection thresholds
type LayoutConfig struct {
	MinConfidence   float64 `yaml:"min_confidence"`    // fragment floor for spatial analysis
	GapFraction     float64 `yaml:"gap_fraction"`      // column gap as a share of image width
	MinPairEvidence int     `yaml:"min_pair_evidence"` // bilingual line pairs required for a text split
	MinSizeRatio    float64 `yaml:"min_size_ratio"`    // smaller/larger column balance floor
}

// AIConfig represents AI provider configuration
type AIConfig struct {
	// OpenAI
	OpenAI OpenAIConfig `yaml:"openai"`

	// Gemini
	Gemini GeminiConfig `yaml:"gemini"`

	// Ollama (local)
	Ollama OllamaConfig `yaml:"ollama"`

	// Default provider
	DefaultProvider string `yaml:"default_provider"` // "openai", "gemini", "ollama"

	// Let vision transcription join the candidate matrix
	UseVision bool `yaml:"use_vision"`
}

// OpenAIConfig for OpenAI/Azure OpenAI
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`              // Default: "gpt-4o"
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-1.5-flash"
}

// OllamaConfig for local Ollama
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"` // Default: "http://localhost:11434"
	Model   string `yaml:"model"`    // e.g., "llava", "llama3.2-vision"
}
