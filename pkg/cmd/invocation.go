// Package cmd is the transport-neutral half of bot commands. A Command has a
// name, a description and a Run; adapters decide how it is registered and
// what lands in Invocation.Data.
package cmd

import "context"

// Invocation is one call of a command. Name is what the user typed, which
// may be an alias. Data holds the adapter's own context, for Discord the
// session and the interaction event.
type Invocation struct {
	Name string
	Data any
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
