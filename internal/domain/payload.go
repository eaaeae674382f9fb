package domain

// Payload is the bag of data accumulated across stages. Each stage only adds
// to it; fields written by earlier stages must survive later updates.
type Payload struct {
	Content     *Content `json:"content,omitempty"`
	Layout      string   `json:"layout,omitempty"`
	ContentHash string   `json:"content_hash,omitempty"`
	TimeMarker  string   `json:"time_marker,omitempty"`
	TokenMarker string   `json:"token_marker,omitempty"`
	FrameURLs   []string `json:"frame_urls,omitempty"`
	VideoKey    string   `json:"video_key,omitempty"`
	ExternalID  string   `json:"external_id,omitempty"`
	Title       string   `json:"title,omitempty"`
}

// IsEmpty reports whether no stage has written anything yet.
func (p Payload) IsEmpty() bool {
	return p.Content == nil && p.Layout == "" && p.ContentHash == "" &&
		p.TimeMarker == "" && p.TokenMarker == "" && len(p.FrameURLs) == 0 &&
		p.VideoKey == "" && p.ExternalID == "" && p.Title == ""
}

// PayloadPatch carries a stage's additions. Apply copies only the fields a
// stage actually produced, which keeps merges additive.
type PayloadPatch struct {
	Content     *Content
	Layout      string
	ContentHash string
	TimeMarker  string
	TokenMarker string
	FrameURLs   []string
	VideoKey    string
	ExternalID  string
	Title       string
}

// Apply merges the patch into the payload without clearing prior fields.
func (p PayloadPatch) Apply(dst *Payload) {
	if dst == nil {
		return
	}
	if p.Content != nil {
		dst.Content = p.Content
	}
	if p.Layout != "" {
		dst.Layout = p.Layout
	}
	if p.ContentHash != "" {
		dst.ContentHash = p.ContentHash
	}
	if p.TimeMarker != "" {
		dst.TimeMarker = p.TimeMarker
	}
	if p.TokenMarker != "" {
		dst.TokenMarker = p.TokenMarker
	}
	if len(p.FrameURLs) > 0 {
		dst.FrameURLs = p.FrameURLs
	}
	if p.VideoKey != "" {
		dst.VideoKey = p.VideoKey
	}
	if p.ExternalID != "" {
		dst.ExternalID = p.ExternalID
	}
	if p.Title != "" {
		dst.Title = p.Title
	}
}

// IsZero reports whether the patch carries nothing.
func (p PayloadPatch) IsZero() bool {
	return p.Content == nil && p.Layout == "" && p.ContentHash == "" &&
		p.TimeMarker == "" && p.TokenMarker == "" && len(p.FrameURLs) == 0 &&
		p.VideoKey == "" && p.ExternalID == "" && p.Title == ""
}
