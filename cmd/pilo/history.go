package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pilo-web/internal/application/ports"
	"github.com/jhoicas/pilo-web/internal/application/usecase"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	"github.com/jhoicas/pilo-web/internal/infrastructure/export"
	infrapdf "github.com/jhoicas/pilo-web/internal/infrastructure/pdf"
)

// publicBaseURL raíz de los enlaces a producto en las exportaciones del CLI.
const publicBaseURL = "https://www.pilo.life"

func (c *cli) newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List scanned products, newest first as returned by the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			page, err := usecase.NewHistoryUseCase(backend.NewAPI(c.store), c.log.Named("history")).Page(cmd.Context())
			if err != nil {
				return fmt.Errorf("%w: run `pilo login` again", err)
			}
			out := cmd.OutOrStdout()
			switch {
			case page.Error != "":
				return errors.New(page.Error)
			case page.Empty():
				fmt.Fprintln(out, "No scanned products yet")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tPRODUCT\tBRAND\tRATING\tTAGS\tSCANNED")
			for _, it := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					it.Code, it.Name, it.Brands, it.Rating, strings.Join(it.Tags, ","), it.TimeAgo)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the scan history as PDF or XML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			var gen func(ctx context.Context, in ports.HistoryExport) ([]byte, error)
			switch strings.ToLower(format) {
			case "pdf":
				gen = infrapdf.NewMarotoHistoryPDF().GenerateHistoryPDF
			case "xml":
				gen = export.NewXMLExporter().ExportHistoryXML
			default:
				return fmt.Errorf("unknown format %q (use pdf or xml)", format)
			}

			ctx := cmd.Context()
			entries, err := usecase.NewHistoryUseCase(backend.NewAPI(c.store), c.log.Named("history")).Entries(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", usecase.MsgHistoryError, err)
			}
			now := time.Now()
			data, err := gen(ctx, ports.HistoryExport{
				User:        c.store.Snapshot().User,
				Entries:     entries,
				GeneratedAt: now,
				BaseURL:     publicBaseURL,
			})
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("pilo-history-%s.%s", now.Format("20060102"), strings.ToLower(format))
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d entries to %s\n", len(entries), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Export format: pdf or xml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, or - for stdout (default pilo-history-YYYYMMDD.<format>)")
	return cmd
}
