package server

// ErrorResponse is the uniform error envelope of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// ActionMetadata is the Solana Actions GET response.
type ActionMetadata struct {
	Type        string       `json:"type"`
	Icon        string       `json:"icon"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Label       string       `json:"label"`
	Links       *ActionLinks `json:"links,omitempty"`
}

type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

type LinkedAction struct {
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

type ActionParameter struct {
	Name     string  `json:"name"`
	Label    string  `json:"label"`
	Type     string  `json:"type"`
	Required bool    `json:"required"`
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
}

// PostActionRequest is the Actions POST body: the buyer's wallet account.
type PostActionRequest struct {
	Account string `json:"account"`
}

// PostActionResponse carries the built unsigned transaction back to the
// wallet.
type PostActionResponse struct {
	Transaction string `json:"transaction"`
	Message     string `json:"message,omitempty"`
}

// ActionsRules is the /actions.json discovery document.
type ActionsRules struct {
	Rules []ActionsRule `json:"rules"`
}

type ActionsRule struct {
	PathPattern string `json:"pathPattern"`
	APIPath     string `json:"apiPath"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	OK bool `json:"ok"`
}
