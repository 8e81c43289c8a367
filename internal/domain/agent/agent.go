// Package agent defines agent definitions, their tools and the immutable
// catalog the planner pipeline is built from.
package agent

import (
	"context"
	"errors"
	"fmt"
)

// ErrMaxTurnsExceeded is returned when an agent does not produce a final
// answer within its turn budget.
var ErrMaxTurnsExceeded = errors.New("max turns exceeded")

// ErrUnknownTool is returned when a model requests a tool the agent does not have.
var ErrUnknownTool = errors.New("unknown tool")

// Well-known agent names of the travel pipeline.
const (
	Planner   = "PlannerAgent"
	Flights   = "FlightsAgent"
	Hotels    = "HotelsAgent"
	Itinerary = "ItineraryAgent"
)

// Tool is a capability an agent may invoke mid-run. Arguments and results
// are JSON text exactly as exchanged with the model.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema of the argument object.
	Parameters() map[string]any
	Call(ctx context.Context, arguments string) (string, error)
}

// Definition is a named agent: a fixed instruction prompt, a model and an
// optional tool set.
type Definition struct {
	Name         string
	Instructions string
	Model        string
	Tools        []Tool
}

// Tool returns the named tool, if the agent has it.
func (d Definition) Tool(name string) (Tool, bool) {
	for _, t := range d.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Validate checks a definition is usable.
func (d Definition) Validate() error {
	if d.Name == "" {
		return errors.New("agent name is required")
	}
	if d.Model == "" {
		return fmt.Errorf("agent %s: model is required", d.Name)
	}
	seen := make(map[string]struct{}, len(d.Tools))
	for _, t := range d.Tools {
		if _, dup := seen[t.Name()]; dup {
			return fmt.Errorf("agent %s: duplicate tool %s", d.Name, t.Name())
		}
		seen[t.Name()] = struct{}{}
	}
	return nil
}

// Catalog is a read-only set of definitions built once at startup and
// shared by every run.
type Catalog struct {
	defs map[string]Definition
}

// NewCatalog validates the definitions and indexes them by name.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.defs[d.Name]; dup {
			return nil, fmt.Errorf("duplicate agent %s", d.Name)
		}
		c.defs[d.Name] = d
	}
	return c, nil
}

// Get returns the named definition.
func (c *Catalog) Get(name string) (Definition, bool) {
	d, ok := c.defs[name]
	return d, ok
}

// Require returns the named definitions or an error naming the first missing one.
func (c *Catalog) Require(names ...string) error {
	for _, n := range names {
		if _, ok := c.defs[n]; !ok {
			return fmt.Errorf("agent catalog: %s is not configured", n)
		}
	}
	return nil
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}
