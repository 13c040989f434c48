package app

import "strings"

// Operation identifies one CLI invocation in the log: a command name plus
// optional key=value parameters, rendered as "Upload(file=horn.mp3)".
type Operation struct {
	Name   string
	params []string
}

// NewOperation creates an operation tag for a CLI command. args are
// alternating key, value pairs; a trailing odd key is ignored.
func NewOperation(name string, args ...string) Operation {
	op := Operation{Name: name}
	for i := 0; i+1 < len(args); i += 2 {
		op.params = append(op.params, args[i]+"="+args[i+1])
	}
	return op
}

func (o Operation) String() string {
	if len(o.params) == 0 {
		return o.Name
	}
	return o.Name + "(" + strings.Join(o.params, " ") + ")"
}
