package dto

import (
	"github.com/careoptions/rcm-dashboard/internal/domain/service"
	"github.com/careoptions/rcm-dashboard/internal/domain/valueobject"
)

// AssetReportDTO is the result of verifying an asset tree, shaped for CLI output.
type AssetReportDTO struct {
	Files    []FileCheckDTO `json:"files"`
	KPIMap   *KPIMapDTO     `json:"kpi_map,omitempty"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	OK       bool           `json:"ok"`
}

type FileCheckDTO struct {
	Path    string `json:"path"`
	Present bool   `json:"present"`
	Size    int64  `json:"size"`
}

type KPIMapDTO struct {
	TreeNodes int `json:"tree_nodes"`
	KPINodes  int `json:"kpi_nodes"`
	Leaves    int `json:"leaves"`
}

func NewAssetReportDTO() *AssetReportDTO {
	return &AssetReportDTO{
		Files:    make([]FileCheckDTO, 0),
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
		OK:       true,
	}
}

// AddFinding files a finding under errors or warnings. Any error marks the report failed.
func (r *AssetReportDTO) AddFinding(f valueobject.Finding) {
	if f.Severity().Blocking() {
		r.Errors = append(r.Errors, f.String())
		r.OK = false
		return
	}
	r.Warnings = append(r.Warnings, f.String())
}

func FromKPIMapSummary(s service.KPIMapSummary) *KPIMapDTO {
	return &KPIMapDTO{
		TreeNodes: s.TreeNodes,
		KPINodes:  s.KPINodes,
		Leaves:    s.Leaves,
	}
}
