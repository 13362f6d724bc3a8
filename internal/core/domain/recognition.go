package domain

// RecognitionLanguage is the locale hint handed to the recognition engine.
const RecognitionLanguage = "spa"

// RecognitionJob identifies one stored binary for the recognition engine.
type RecognitionJob struct {
	ItemID     string `json:"item_id"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	Language   string `json:"language"`
}

// RecognitionResult is the engine's reply: recognized text or a failure.
type RecognitionResult struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// RecognitionProgress is one fractional-completion event for an in-flight
// job, in [0,1].
type RecognitionProgress struct {
	ItemID   string  `json:"item_id"`
	Progress float64 `json:"progress"`
}
