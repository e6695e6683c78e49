package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/careoptions/rcm-dashboard/internal/application/dto"
	"github.com/careoptions/rcm-dashboard/internal/domain/entity"
	"github.com/careoptions/rcm-dashboard/internal/domain/service"
	"github.com/careoptions/rcm-dashboard/internal/domain/valueobject"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

type VerifyAssetsCommand struct {
	RequiredFiles []string
}

type VerifyAssetsUseCase struct {
	fsys      fs.FS
	validator *service.KPIMapValidator
	logger    *logger.Logger
}

func NewVerifyAssetsUseCase(fsys fs.FS, validator *service.KPIMapValidator, log *logger.Logger) *VerifyAssetsUseCase {
	if validator == nil {
		validator = service.NewKPIMapValidator()
	}
	return &VerifyAssetsUseCase{
		fsys:      fsys,
		validator: validator,
		logger:    log,
	}
}

// Execute checks the asset tree. Problems with the assets are reported in the
// DTO; the returned error is reserved for cancellation.
func (uc *VerifyAssetsUseCase) Execute(ctx context.Context, cmd VerifyAssetsCommand) (*dto.AssetReportDTO, error) {
	report := dto.NewAssetReportDTO()
	checkedKPIMap := false

	for _, name := range cmd.RequiredFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name = strings.TrimPrefix(path.Clean("/"+name), "/")
		check := dto.FileCheckDTO{Path: name}

		info, err := fs.Stat(uc.fsys, name)
		switch {
		case err != nil:
			report.AddFinding(valueobject.ErrorFinding(name, "required file is missing"))
		case info.IsDir():
			report.AddFinding(valueobject.ErrorFinding(name, "required file is a directory"))
		default:
			check.Present = true
			check.Size = info.Size()
		}
		report.Files = append(report.Files, check)

		if !check.Present || path.Ext(name) != ".json" {
			continue
		}

		data, err := fs.ReadFile(uc.fsys, name)
		if err != nil {
			report.AddFinding(valueobject.ErrorFinding(name, "failed to read: %v", err))
			continue
		}
		if !json.Valid(data) {
			report.AddFinding(valueobject.ErrorFinding(name, "file is not valid JSON"))
			continue
		}

		if name == service.KPIMapFile {
			uc.checkKPIMap(data, report)
			checkedKPIMap = true
		}
	}

	if !checkedKPIMap {
		data, err := fs.ReadFile(uc.fsys, service.KPIMapFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			report.AddFinding(valueobject.ErrorFinding(service.KPIMapFile, "failed to read: %v", err))
		case !json.Valid(data):
			report.AddFinding(valueobject.ErrorFinding(service.KPIMapFile, "file is not valid JSON"))
		default:
			uc.checkKPIMap(data, report)
		}
	}

	if uc.logger != nil {
		uc.logger.Info("Asset verification finished",
			"files", len(report.Files),
			"errors", len(report.Errors),
			"warnings", len(report.Warnings),
		)
	}

	return report, nil
}

func (uc *VerifyAssetsUseCase) checkKPIMap(data []byte, report *dto.AssetReportDTO) {
	m, err := entity.ParseKPIMap(data)
	if err != nil {
		report.AddFinding(valueobject.ErrorFinding(service.KPIMapFile, "%v", err))
		return
	}

	summary := uc.validator.Validate(m)
	for _, f := range summary.Findings {
		report.AddFinding(f)
	}
	report.KPIMap = dto.FromKPIMapSummary(summary)
}

// Summary renders a one-line outcome for the CLI.
func Summary(report *dto.AssetReportDTO) string {
	status := "ok"
	if !report.OK {
		status = "failed"
	}
	return fmt.Sprintf("%s: %d files checked, %d errors, %d warnings",
		status, len(report.Files), len(report.Errors), len(report.Warnings))
}
