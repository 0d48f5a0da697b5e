package gemini

// Wire types for the generateContent endpoint.

type Part struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *FunctionCall `json:"functionCall,omitempty"`
}

type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type Content struct {
	Role  string  `json:"role,omitempty"`
	Parts []*Part `json:"parts"`
}

type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

type Tool struct {
	FunctionDeclarations []*FunctionDeclaration `json:"functionDeclarations"`
}

type generateRequest struct {
	Contents []*Content `json:"contents"`
	Tools    []*Tool    `json:"tools,omitempty"`
}

type candidate struct {
	Content *Content `json:"content"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type generateResponse struct {
	Candidates []*candidate `json:"candidates"`
	Error      *apiError    `json:"error,omitempty"`
}

// Reply is the parsed outcome of one generation call: either plain text or a
// named tool invocation, never both.
type Reply struct {
	Text     string
	ToolCall *FunctionCall
}

func (r *Reply) IsToolCall() bool {
	return r.ToolCall != nil
}

func NewTextContent(role, text string) *Content {
	return &Content{
		Role:  role,
		Parts: []*Part{{Text: text}},
	}
}
