package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// KPINodeType marks tree nodes that stand for individual KPIs. The four-level
// layout (pillar, macro, category, KPI) leaves the type off its leaves; the
// two-level layout (pillar, KPI) sets it.
const KPINodeType = "kpi"

// KPICardSections are the sections a KPI card renders from a node.
var KPICardSections = []string{
	"context",
	"current_state",
	"root_causes",
	"predictive_insights",
	"trend_analysis",
}

// KPIMap is the decoded form of kpi_map.json.
type KPIMap struct {
	Version    string    `json:"version,omitempty"`
	TotalNodes *int      `json:"total_nodes,omitempty"`
	Tree       *TreeNode `json:"tree"`
	Nodes      []KPINode `json:"nodes"`
}

// TreeNode is one entry of the pillar/macro/category/KPI hierarchy.
type TreeNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Level    int         `json:"level"`
	Type     string      `json:"type,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// KPINode keeps every field of a node raw; only a handful are interpreted.
type KPINode map[string]json.RawMessage

func ParseKPIMap(data []byte) (*KPIMap, error) {
	var m KPIMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode kpi map: %w", err)
	}
	if m.Tree == nil {
		return nil, errors.New("kpi map has no tree")
	}
	return &m, nil
}

// Walk visits every tree node depth-first, parents before children.
func (t *TreeNode) Walk(fn func(node *TreeNode)) {
	if t == nil {
		return
	}
	fn(t)
	for _, child := range t.Children {
		child.Walk(fn)
	}
}

// IsKPI reports whether the node stands for a KPI: typed "kpi" at any depth,
// or untyped with no children below the root.
func (t *TreeNode) IsKPI() bool {
	if t.Type == KPINodeType {
		return true
	}
	return t.Type == "" && len(t.Children) == 0 && t.Level > 0
}

// KPILeaves returns the KPI nodes of the tree in walk order.
func (t *TreeNode) KPILeaves() []*TreeNode {
	var out []*TreeNode
	t.Walk(func(node *TreeNode) {
		if node.IsKPI() {
			out = append(out, node)
		}
	})
	return out
}

// Count returns the number of nodes in the subtree rooted at t.
func (t *TreeNode) Count() int {
	n := 0
	t.Walk(func(*TreeNode) { n++ })
	return n
}

// NodeIndex maps node ids to their position in Nodes. Nodes without an id
// are skipped; on duplicates the first occurrence wins.
func (m *KPIMap) NodeIndex() map[string]int {
	index := make(map[string]int, len(m.Nodes))
	for i, node := range m.Nodes {
		id := node.String("id")
		if id == "" {
			continue
		}
		if _, seen := index[id]; !seen {
			index[id] = i
		}
	}
	return index
}

// String returns the field as a string, or "" when it is absent or not a string.
func (n KPINode) String(field string) string {
	raw, ok := n[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Has reports whether the field is present and not null.
func (n KPINode) Has(field string) bool {
	raw, ok := n[field]
	return ok && string(raw) != "null"
}

// MissingSections lists the card sections the node lacks.
func (n KPINode) MissingSections() []string {
	var missing []string
	for _, section := range KPICardSections {
		if !n.Has(section) {
			missing = append(missing, section)
		}
	}
	return missing
}
