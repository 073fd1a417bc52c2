package notifier

// Envelope is the JSON payload POSTed to webhook endpoints. The layout is
// the Discord-compatible embed schema.
type Envelope struct {
	Embeds []Embed `json:"embeds"`
}

// Embed is a single rich-embed block.
type Embed struct {
	Author      Author  `json:"author"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Footer      *Footer `json:"footer,omitempty"`
	Thumbnail   *Media  `json:"thumbnail,omitempty"`
	Image       *Media  `json:"image,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"` // RFC3339 instant
}

// Author names the embed's author line.
type Author struct {
	Name string `json:"name"`
}

// Footer is the embed footer with an optional icon.
type Footer struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// Media is an image or thumbnail reference.
type Media struct {
	URL string `json:"url"`
}
