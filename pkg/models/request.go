package models

// RenderRequest is the body of a render call
type RenderRequest struct {
	Data     *ResumeData `json:"data"`
	Template TemplateRef `json:"template"`
}

// RenderOptions are per-call knobs that do not affect the markup
type RenderOptions struct {
	RequestID string `json:"request_id,omitempty"`
	SkipCache bool   `json:"skip_cache,omitempty"`
}
