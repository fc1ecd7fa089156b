// SPDX-License-Identifier: MIT

package dag

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a graph. JSON documents decode through
// the same path because YAML 1.2 is a superset of JSON.
type document struct {
	Name  string        `yaml:"name"`
	Nodes []nodeDoc     `yaml:"nodes"`
	Edges []edgeDocItem `yaml:"edges"`
}

type nodeDoc struct {
	ID    string    `yaml:"id"`
	Label string    `yaml:"label"`
	Mass  *float64  `yaml:"mass"`
	Cost  *float64  `yaml:"cost"`
	Attrs []float64 `yaml:"attrs"`
}

type edgeDocItem struct {
	From   string   `yaml:"from"`
	To     string   `yaml:"to"`
	Weight *float64 `yaml:"weight"`
}

// Decode reads a YAML or JSON graph document from r and builds it.
// Missing mass, cost and weight default to 1.
func Decode(r io.Reader) (*Graph, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("dag: decode: %w", err)
	}

	b := NewBuilder(doc.Name)
	for _, n := range doc.Nodes {
		if err := b.AddNode(Node{
			ID:    n.ID,
			Label: n.Label,
			Mass:  orOne(n.Mass),
			Cost:  orOne(n.Cost),
			Attrs: n.Attrs,
		}); err != nil {
			return nil, err
		}
	}
	for _, e := range doc.Edges {
		if err := b.AddEdge(Edge{From: e.From, To: e.To, Weight: orOne(e.Weight)}); err != nil {
			return nil, err
		}
	}

	return b.Build()
}

// ReadFile decodes the graph document stored at path. When the document has
// no name, the path is used.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if g.name == "" {
		g.name = path
	}

	return g, nil
}

func orOne(p *float64) float64 {
	if p == nil {
		return 1
	}
	return *p
}
