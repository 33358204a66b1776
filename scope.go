package gprob

import "strings"

// Scope is a stack of name labels used to qualify the nodes and errors
// a distribution produces. Nested method calls push their own labels so
// that derived quantities report paths such as "normal/prob/log_prob".
//
// A Scope is not safe for concurrent use, the same restriction graph
// construction itself carries.
type Scope struct {
	names []string
}

// NewScope returns a scope rooted at root. An empty root yields an
// anonymous scope.
func NewScope(root string) *Scope {
	s := &Scope{}
	if root != "" {
		s.names = append(s.names, root)
	}

	return s
}

// Enter pushes label onto the scope and returns the function that
// leaves it again. Callers defer the returned function so the label is
// popped on every path out of the method:
//
//	exit := scope.Enter("prob")
//	defer exit()
//
// Leaving truncates the scope back to its depth at entry, so a missed
// inner exit cannot corrupt the stack.
func (s *Scope) Enter(label string) func() {
	s.names = append(s.names, label)
	depth := len(s.names) - 1

	return func() {
		if len(s.names) > depth {
			s.names = s.names[:depth]
		}
	}
}

// Name returns the current scope path, with labels joined by "/".
func (s *Scope) Name() string { return strings.Join(s.names, "/") }

// Qualify returns leaf prefixed with the current scope path.
func (s *Scope) Qualify(leaf string) string {
	if len(s.names) == 0 {
		return leaf
	}

	return s.Name() + "/" + leaf
}
