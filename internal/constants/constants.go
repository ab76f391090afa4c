package constants

import "time"

var Collections = struct {
	Roasts string
	Faces  string
}{
	Roasts: "reddit_roasts",
	Faces:  "reddit_faces",
}

var RetrievalConfig = struct {
	TextResults   int
	FaceResults   int
	StyleAnchor   string
	FaceDimension int
}{
	TextResults:   3,
	FaceResults:   1,
	StyleAnchor:   "brutal savage devastating insult",
	FaceDimension: 128,
}

var ModelDefaults = struct {
	GeminiModel          string
	GeminiEmbeddingModel string
	OpenAIModel          string
	OpenAIEmbeddingModel string
}{
	GeminiModel:          "gemini-2.5-flash",
	GeminiEmbeddingModel: "text-embedding-004",
	OpenAIModel:          "gpt-4.1-mini",
	OpenAIEmbeddingModel: "text-embedding-3-small",
}

var AIInputLimits = struct {
	MaxTasteLength int
}{
	MaxTasteLength: 500,
}

var ImageLimits = struct {
	MaxEdge     int
	JPEGQuality int
	MaxUploadMB int
}{
	MaxEdge:     1024,
	JPEGQuality: 85,
	MaxUploadMB: 10,
}

var IngestConfig = struct {
	SampleSize    int
	Seed          int64
	BatchSize     int
	MinTextLength int
	DeletedMarker string
	Source        string
	Concurrency   int
}{
	SampleSize:    2000,
	Seed:          42,
	BatchSize:     100,
	MinTextLength: 20,
	DeletedMarker: "[deleted]",
	Source:        "reddit",
	Concurrency:   4,
}

var RedisConfig = struct {
	ReadyTimeout   time.Duration
	EmbeddingTTL   time.Duration
	EmbeddingScope string
}{
	ReadyTimeout:   5 * time.Second,
	EmbeddingTTL:   7 * 24 * time.Hour,
	EmbeddingScope: "roast:emb_cache:",
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,                // open after 3 consecutive failures
	ResetTimeout:        30 * time.Second, // default wait before retrying
	RateLimitTimeout:    10 * time.Minute, // 429 responses
	HealthCheckInterval: 2 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var HTTPConfig = struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FaceEncoderTime time.Duration
}{
	ReadTimeout:     30 * time.Second,
	WriteTimeout:    120 * time.Second,
	ShutdownTimeout: 10 * time.Second,
	FaceEncoderTime: 15 * time.Second,
}
