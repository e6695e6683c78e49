package service

import (
	"strings"

	"github.com/careoptions/rcm-dashboard/internal/domain/entity"
	"github.com/careoptions/rcm-dashboard/internal/domain/valueobject"
)

// KPIMapFile is the asset name findings from KPIMapValidator are reported under.
const KPIMapFile = "kpi_map.json"

// KPIMapSummary is the outcome of validating a KPI map.
type KPIMapSummary struct {
	TreeNodes int
	KPINodes  int
	Leaves    int
	Findings  []valueobject.Finding
}

// KPIMapValidator checks the structure of kpi_map.json against what the
// dashboard front end relies on (Domain Service).
type KPIMapValidator struct{}

func NewKPIMapValidator() *KPIMapValidator {
	return &KPIMapValidator{}
}

func (v *KPIMapValidator) Validate(m *entity.KPIMap) KPIMapSummary {
	var summary KPIMapSummary
	add := func(f valueobject.Finding) {
		summary.Findings = append(summary.Findings, f)
	}

	if m == nil || m.Tree == nil {
		add(valueobject.ErrorFinding(KPIMapFile, "tree is missing"))
		return summary
	}

	if strings.TrimSpace(m.Tree.ID) == "" || strings.TrimSpace(m.Tree.Name) == "" {
		add(valueobject.ErrorFinding(KPIMapFile, "tree root must have id and name"))
	}

	summary.TreeNodes = m.Tree.Count()
	summary.KPINodes = len(m.Nodes)

	seen := make(map[string]bool, len(m.Nodes))
	for i, node := range m.Nodes {
		id := node.String("id")
		if id == "" {
			add(valueobject.ErrorFinding(KPIMapFile, "nodes[%d] has no id", i))
			continue
		}
		if node.String("name") == "" {
			add(valueobject.ErrorFinding(KPIMapFile, "node %s has no name", id))
		}
		if seen[id] {
			add(valueobject.WarningFinding(KPIMapFile, "node %s is defined more than once", id))
			continue
		}
		seen[id] = true

		if missing := node.MissingSections(); len(missing) > 0 {
			add(valueobject.WarningFinding(KPIMapFile, "node %s is missing card sections: %s", id, strings.Join(missing, ", ")))
		}
	}

	if m.TotalNodes != nil && *m.TotalNodes != len(m.Nodes) {
		add(valueobject.ErrorFinding(KPIMapFile, "total_nodes is %d but nodes has %d entries", *m.TotalNodes, len(m.Nodes)))
	}

	index := m.NodeIndex()
	leaves := m.Tree.KPILeaves()
	summary.Leaves = len(leaves)
	for _, leaf := range leaves {
		if _, ok := index[leaf.ID]; !ok {
			add(valueobject.ErrorFinding(KPIMapFile, "tree leaf %q (%s) has no matching node", leaf.ID, leaf.Name))
		}
	}

	return summary
}

// HasErrors reports whether any finding blocks verification.
func (s KPIMapSummary) HasErrors() bool {
	for _, f := range s.Findings {
		if f.Severity().Blocking() {
			return true
		}
	}
	return false
}
