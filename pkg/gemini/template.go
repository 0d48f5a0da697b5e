package gemini

import (
	"encoding/json"
	"fmt"
	"os"
)

// Template is the static part of every request: the instruction preamble and
// any tool declarations shipped alongside it.
type Template struct {
	Contents []*Content `json:"contents"`
	Tools    []*Tool    `json:"tools,omitempty"`
}

// LoadTemplate reads a prompt template JSON file. The file must contain a
// "contents" array; "tools" is optional.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", path, err)
	}
	if tpl.Contents == nil {
		return nil, fmt.Errorf("prompt template %s has no contents", path)
	}
	return &tpl, nil
}

// mergeTools combines template-declared tools with code-declared ones into a
// single declaration list. On a name collision the code declaration wins, so
// template authors cannot silently change the schema the bot dispatches on.
func mergeTools(templateTools []*Tool, codeTools []*FunctionDeclaration) []*Tool {
	merged := make([]*FunctionDeclaration, 0, len(codeTools))
	seen := make(map[string]bool, len(codeTools))
	for _, decl := range codeTools {
		merged = append(merged, decl)
		seen[decl.Name] = true
	}
	for _, tool := range templateTools {
		for _, decl := range tool.FunctionDeclarations {
			if !seen[decl.Name] {
				merged = append(merged, decl)
				seen[decl.Name] = true
			}
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return []*Tool{{FunctionDeclarations: merged}}
}
