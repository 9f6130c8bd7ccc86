package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pilo-web/internal/application/dto"
	"github.com/jhoicas/pilo-web/internal/application/scanner"
	"github.com/jhoicas/pilo-web/internal/application/usecase"
	"github.com/jhoicas/pilo-web/internal/domain"
	"github.com/jhoicas/pilo-web/internal/domain/barcode"
	"github.com/jhoicas/pilo-web/internal/domain/nutrition"
	"github.com/jhoicas/pilo-web/internal/infrastructure/backend"
	infrabarcode "github.com/jhoicas/pilo-web/internal/infrastructure/barcode"
)

func (c *cli) newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <barcode>",
		Short: "Show nutrition details for a barcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			code := strings.TrimSpace(args[0])
			if !barcode.Valid(code) {
				return errors.New(scanner.MsgInvalidBarcode)
			}
			return c.printProduct(cmd, code)
		},
	}
}

func (c *cli) newScanImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-image <file>",
		Short: "Decode a barcode from an image, record the scan and show the product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireUser(); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			img, err := infrabarcode.Decode(f)
			if err != nil {
				return err
			}

			submitter := scanner.NewBackendSubmitter(backend.NewAPI(c.store))
			sc := scanner.New(nil, infrabarcode.NewZXingDetector(), submitter, c.cfg.Scanner, c.log.Named("scanner"), nil)
			defer sc.Close()
			if err := sc.ScanImage(cmd.Context(), img); err != nil {
				return err
			}

			snap := sc.Snapshot()
			switch {
			case snap.Notice != "":
				return errors.New(snap.Notice)
			case snap.Navigate == "/login":
				return fmt.Errorf("%s: run `pilo login` again", domain.ErrSessionExpired)
			case snap.Failed():
				return errors.New(snap.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scanned %s\n\n", snap.Code)
			return c.printProduct(cmd, snap.Code)
		},
	}
}

func (c *cli) printProduct(cmd *cobra.Command, code string) error {
	uc := usecase.NewProductUseCase(backend.NewAPI(c.store), 0, c.log.Named("product"))
	details, err := uc.Details(cmd.Context(), code)
	if err != nil {
		return fmt.Errorf("%w: run `pilo login` again", err)
	}
	switch {
	case details.Error != "":
		return errors.New(details.Error)
	case details.NotFound:
		return errors.New("No product found for this barcode")
	}
	writeProduct(cmd.OutOrStdout(), details)
	return nil
}

func writeProduct(out io.Writer, d dto.ProductDetails) {
	v := d.View
	fmt.Fprintf(out, "%s\n%s\n\n", v.Name, v.Brands)
	fmt.Fprintf(out, "Score:       %s/%d\n", v.ScoreText, nutrition.ScoreMax)
	if v.NutriScore != "" {
		fmt.Fprintf(out, "Nutri-Score: %s\n", v.NutriScore)
	}
	if v.NovaGroup != "" {
		fmt.Fprintf(out, "NOVA:        %s\n", v.NovaGroup)
	}
	if len(v.Allergens) > 0 {
		fmt.Fprintf(out, "Contains allergens: %s\n", strings.Join(v.Allergens, ", "))
	}

	fmt.Fprintln(out, "\nDietary Information")
	for _, row := range v.Flags.Rows() {
		mark := "no"
		if row.OK {
			mark = "yes"
		}
		fmt.Fprintf(out, "  %-14s %s\n", row.Label, mark)
	}

	if len(v.Nutrients) > 0 {
		fmt.Fprintln(out, "\nNutrition Facts")
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, n := range v.Nutrients {
			fmt.Fprintf(tw, "  %s\t%s %s\t%s\n", n.Label, n.Value, n.Unit, n.Advice.Text)
		}
		tw.Flush()
	}
	if len(v.Advisor) > 0 {
		fmt.Fprintln(out, "\nNutrition Advisor")
		for _, a := range v.Advisor {
			fmt.Fprintf(out, "  %s: %s\n", a.Label, a.Level)
		}
	}
	if v.IngredientsText != "" {
		fmt.Fprintf(out, "\nIngredients\n  %s\n", v.IngredientsText)
	}
}
