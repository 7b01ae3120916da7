// Package autoload registers every built-in LLM provider factory.
// Import it for side effects only.
package autoload

import (
	_ "mentor/pkg/llm/gemini"
	_ "mentor/pkg/llm/ollama"
	_ "mentor/pkg/llm/openailm"
)
