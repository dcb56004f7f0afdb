package rpc

// Filter operators understood by Query.
const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
)

type Filter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

type DocumentRequest struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Merge      bool           `json:"merge,omitempty"`
	Filters    []Filter       `json:"filters,omitempty"`
}

type DocumentResponse struct {
	ID        string     `json:"id,omitempty"`
	Found     bool       `json:"found,omitempty"`
	Document  *Document  `json:"document,omitempty"`
	Documents []Document `json:"documents,omitempty"`
}

// Event types delivered on a subscription stream.
const (
	EventSnapshot = "snapshot"
	EventDeleted  = "deleted"
)

type Event struct {
	Type     string    `json:"type"`
	Document *Document `json:"document,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

type Session struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	Profile      map[string]any `json:"profile,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type PresignRequest struct {
	Key         string `json:"key,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

type PresignResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type PingResponse struct {
	Status string `json:"status"`
}
