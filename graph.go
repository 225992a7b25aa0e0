package rebind

import (
	"fmt"
	"strings"
)

type GraphNode struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// GraphEdge means "From owns To".
type GraphEdge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Graph is a snapshot of an ownership tree, useful for debugging teardown
// order.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Graph walks the ownership tree rooted at o. Sub-owners recurse; leaf
// children are labeled by their dynamic type.
func (o *Owner) Graph() Graph {
	var g Graph
	var walk func(node *Owner, label string) int
	walk = func(node *Owner, label string) int {
		id := len(g.Nodes)
		g.Nodes = append(g.Nodes, GraphNode{ID: id, Label: label})

		node.mu.Lock()
		children := append([]any(nil), node.children...)
		node.mu.Unlock()

		for _, child := range children {
			var childID int
			if sub, ok := child.(*Owner); ok {
				childID = walk(sub, "owner")
			} else {
				childID = len(g.Nodes)
				g.Nodes = append(g.Nodes, GraphNode{ID: childID, Label: fmt.Sprintf("%T", child)})
			}
			g.Edges = append(g.Edges, GraphEdge{From: id, To: childID})
		}
		return id
	}
	walk(o, "root")
	return g
}

// DOT exports Graphviz DOT text.
func (g Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph rebind {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, n := range g.Nodes {
		b.WriteString(fmt.Sprintf("  n%d [label=\"%s\"];\n", n.ID, escapeDOT(n.Label)))
	}
	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("  n%d -> n%d;\n", e.From, e.To))
	}
	b.WriteString("}\n")
	return b.String()
}

// Mermaid exports Mermaid graph text.
func (g Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, n := range g.Nodes {
		b.WriteString(fmt.Sprintf("    n%d[\"%s\"]\n", n.ID, escapeMermaid(n.Label)))
	}
	for _, e := range g.Edges {
		b.WriteString(fmt.Sprintf("    n%d --> n%d\n", e.From, e.To))
	}
	return b.String()
}

func escapeDOT(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func escapeMermaid(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}
