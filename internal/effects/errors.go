// Package effects error reporting: inference failures form trees so a
// unification mismatch deep inside an argument stays attached to every
// inference step that was attempted above it.
package effects

import (
	"fmt"
	"strings"
)

// ErrorTree is a structured inference diagnostic: a human-readable message,
// a free-text description of the inference step that was being attempted,
// and the nested failures that caused it.
type ErrorTree struct {
	Message  string
	Location string
	Children []*ErrorTree
}

// NewErrorTree creates a leaf diagnostic.
func NewErrorTree(message, location string) *ErrorTree {
	return &ErrorTree{Message: message, Location: location}
}

// WrapError attaches a new location frame on top of existing failures; the
// children become subtrees of the returned root.
func WrapError(message, location string, children ...*ErrorTree) *ErrorTree {
	return &ErrorTree{Message: message, Location: location, Children: children}
}

// InLocation returns a copy of the tree re-rooted under the given location
// frame, leaving the original message chain intact as a subtree.
func (et *ErrorTree) InLocation(location string) *ErrorTree {
	return &ErrorTree{Message: et.Message, Location: location, Children: []*ErrorTree{et}}
}

// Error implements the error interface with the root message and location.
func (et *ErrorTree) Error() string {
	if et.Location == "" {
		return et.Message
	}
	return fmt.Sprintf("%s (%s)", et.Message, et.Location)
}

// String renders the full tree, one frame per line, children indented.
func (et *ErrorTree) String() string {
	var sb strings.Builder
	et.render(&sb, 0)
	return sb.String()
}

func (et *ErrorTree) render(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(et.Error())
	for _, child := range et.Children {
		sb.WriteString("\n")
		child.render(sb, depth+1)
	}
}

// unreachable signals an internal traversal invariant violation. These are
// defects in the walker or its inputs, never user-facing inference
// failures, so they abort the run instead of entering the ErrorTree
// taxonomy.
func unreachable(format string, args ...interface{}) {
	panic(fmt.Sprintf("effect inference invariant violated: "+format, args...))
}
