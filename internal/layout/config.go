package layout

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/arbor/internal/graph"
)

// Margin is the empty border around the laid out forest.
type Margin struct {
	Top    float64 `yaml:"top"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
}

// Validate validates the margins.
func (m Margin) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Top, validation.Min(0.0)),
		validation.Field(&m.Right, validation.Min(0.0)),
		validation.Field(&m.Bottom, validation.Min(0.0)),
		validation.Field(&m.Left, validation.Min(0.0)),
	)
}

// Config controls node placement.
//
// NodeSize overrides the rendering size of nodes per type; types missing from
// the map keep the size assigned by the graph builder.
type Config struct {
	LevelSpacing float64                    `yaml:"level_spacing"`
	NodeSpacing  float64                    `yaml:"node_spacing"`
	NodeSize     map[graph.NodeType]float64 `yaml:"node_size"`
	Margin       Margin                     `yaml:"margin"`
}

// DefaultConfig returns the spacing used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		LevelSpacing: 150,
		NodeSpacing:  100,
		NodeSize: map[graph.NodeType]float64{
			graph.NodeRoot:   graph.SizeFor(graph.NodeRoot),
			graph.NodeParent: graph.SizeFor(graph.NodeParent),
			graph.NodeChild:  graph.SizeFor(graph.NodeChild),
			graph.NodeOrphan: graph.SizeFor(graph.NodeOrphan),
		},
		Margin: Margin{Top: 50, Right: 50, Bottom: 50, Left: 50},
	}
}

// Validate validates the layout configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LevelSpacing, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.NodeSpacing, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.NodeSize, validation.Each(validation.Required, validation.Min(0.0).Exclusive())),
		validation.Field(&c.Margin),
	); err != nil {
		return err
	}
	for t := range c.NodeSize {
		if !knownType(t) {
			return fmt.Errorf("layout: node_size: unknown node type %q", t)
		}
	}
	return nil
}

func knownType(t graph.NodeType) bool {
	for _, k := range graph.NodeTypes {
		if k == t {
			return true
		}
	}
	return false
}
