package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/careoptions/rcm-dashboard/internal/application/dto"
	"github.com/careoptions/rcm-dashboard/internal/application/usecase"
	"github.com/careoptions/rcm-dashboard/internal/domain/service"
	"github.com/careoptions/rcm-dashboard/pkg/config"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

// errVerifyFailed is returned after the report has been printed.
var errVerifyFailed = errors.New("asset verification failed")

func newAssetsCmd() *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Inspect the static asset tree",
	}
	assetsCmd.AddCommand(newVerifyCmd())
	return assetsCmd
}

type verifyOptions struct {
	root     string
	required []string
	asJSON   bool
}

func newVerifyCmd() *cobra.Command {
	opts := &verifyOptions{}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that required assets exist and kpi_map.json is well formed",
		Long: "Checks that every required file exists, that required JSON files parse,\n" +
			"and that kpi_map.json matches what the dashboard expects.\n" +
			"Exits non-zero when any error is found; warnings alone pass.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, opts)
		},
	}

	verifyCmd.Flags().StringVar(&opts.root, "root", "", "verify this directory instead of the configured asset source")
	verifyCmd.Flags().StringSliceVar(&opts.required, "require", nil, "required files (defaults to ASSETS_REQUIRED_FILES)")
	verifyCmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")

	return verifyCmd
}

func runVerify(cmd *cobra.Command, opts *verifyOptions) error {
	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.root != "" {
		cfg.Assets.Source = config.AssetSourceDisk
		cfg.Assets.Root = opts.root
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	required := cfg.Assets.RequiredFiles
	if len(opts.required) > 0 {
		required = opts.required
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), os.Getenv("LOG_LEVEL"), logger.Format(os.Getenv("LOG_FORMAT")))

	fsys, err := openAssetSource(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	uc := usecase.NewVerifyAssetsUseCase(fsys, service.NewKPIMapValidator(), log)
	report, err := uc.Execute(cmd.Context(), usecase.VerifyAssetsCommand{RequiredFiles: required})
	if err != nil {
		return err
	}

	if opts.asJSON {
		if err := writeReportJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		writeReportText(cmd.OutOrStdout(), report)
	}

	if !report.OK {
		return errVerifyFailed
	}
	return nil
}

func writeReportJSON(w io.Writer, report *dto.AssetReportDTO) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeReportText(w io.Writer, report *dto.AssetReportDTO) {
	for _, file := range report.Files {
		mark := "ok     "
		if !file.Present {
			mark = "missing"
		}
		fmt.Fprintf(w, "%s  %s (%d bytes)\n", mark, file.Path, file.Size)
	}
	if report.KPIMap != nil {
		fmt.Fprintf(w, "kpi_map.json: %d tree nodes, %d KPI nodes, %d leaves\n",
			report.KPIMap.TreeNodes, report.KPIMap.KPINodes, report.KPIMap.Leaves)
	}
	for _, msg := range report.Errors {
		fmt.Fprintln(w, msg)
	}
	for _, msg := range report.Warnings {
		fmt.Fprintln(w, msg)
	}
	fmt.Fprintln(w, usecase.Summary(report))
}
