package tools

import (
	"fmt"
	"sync"
)

// ErrorKind classifies tool failures.
type ErrorKind int

const (
	KindUnknownTool ErrorKind = iota
	KindInvalidArguments
	KindComputationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownTool:
		return "unknown_tool"
	case KindInvalidArguments:
		return "invalid_arguments"
	case KindComputationFailed:
		return "computation_failed"
	}
	return "unknown"
}

// Error is the error type returned by the tool layer.
type Error struct {
	Kind ErrorKind
	Tool string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool %s: %s: %v", e.Tool, e.Kind, e.Err)
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a tool layer error.
func NewError(kind ErrorKind, tool string, err error) *Error {
	return &Error{Kind: kind, Tool: tool, Err: err}
}

// Tool is one deterministic, side-effect-bounded operation.
type Tool interface {
	// Name is the dispatch token (also the slash command without the slash).
	Name() string

	// Describe returns a one-line usage hint for help text.
	Describe() string

	// Run executes the tool against its raw argument string.
	Run(args string) (string, error)
}

// Registry acts as a central inventory for all tools available to the engine.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// GetAll returns all registered tools.
func (r *Registry) GetAll() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Dispatch runs a named tool. Unknown names fail with KindUnknownTool.
func (r *Registry) Dispatch(name string, args string) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", NewError(KindUnknownTool, name, nil)
	}
	return tool.Run(args)
}
