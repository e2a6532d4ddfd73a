package main

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/service/completion"
	"github.com/mamadbah2/checksheet/internal/service/packing"
)

var userID int

var decodeCmd = &cobra.Command{
	Use:   "decode <payload>",
	Short: "Decode a carton label payload",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, err := models.ParseQRPayload(strings.Join(args, " "))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "upc:            %s\n", scan.UPC)
		fmt.Fprintf(out, "purchase order: %s\n", scan.PurchaseOrder)
		fmt.Fprintf(out, "factory:        %s\n", scan.Factory)
		fmt.Fprintf(out, "item code:      %s\n", scan.ItemCode)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <container>",
	Short: "Show per-item check progress of a container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		progress, err := completion.NewEvaluator(e.store, nil, e.logger).Progress(ctx, userID, args[0], models.Item{})
		if err != nil {
			return err
		}
		printProgress(cmd, progress)
		return nil
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize <container>",
	Short: "Finalize a container when every item is fully checked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := completion.NewEvaluator(e.store, nil, e.logger).Evaluate(ctx, userID, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d of %d checks\n", res.Status, res.Actual, res.Expected)
		for _, m := range res.Missing {
			fmt.Fprintf(out, "  missing %s (po %s)\n", m.ItemCode, m.PONumber)
		}
		return nil
	},
}

var packCmd = &cobra.Command{
	Use:   "pack <item-code>",
	Short: "Verify packing order by reading scanner input from stdin",
	Long: `Loads the size manifest of the item's size run and reads UPCs from stdin,
one per scanner terminator. Each scan is matched against the manifest and the
final slot state is printed when input ends.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		v, err := packing.Open(ctx, e.store, e.store, packing.SizeRunFor(args[0]), e.cfg.Inspection.ScanTerminator)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for ev := range v.Run(ctx, packing.Keys(ctx, cmd.InOrStdin())) {
			if ev.Err != nil {
				fmt.Fprintf(out, "rejected: %v\n", ev.Err)
				continue
			}
			fmt.Fprintf(out, "ok %s size %s slot %d\n", ev.Scan.UPC, ev.Scan.Size, ev.Scan.Slot)
		}

		snap := v.Snapshot()
		fmt.Fprintf(out, "%s, all satisfied: %v\n", snap.State, snap.AllSatisfied)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, finalizeCmd} {
		c.Flags().IntVar(&userID, "user", 0, "Worker id whose checks are counted")
		_ = c.MarkFlagRequired("user")
	}
}

func printProgress(cmd *cobra.Command, progress []completion.ItemProgress) {
	out := cmd.OutOrStdout()
	for _, p := range progress {
		mark := " "
		if p.Complete() {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %-20s po %-10s %d/%d\n", mark, p.ItemCode, p.PONumber, p.Done, p.Total)
	}
}

var (
	labelOut  string
	labelSize int
	labelData models.QRPayload
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Print a carton label payload and optionally render it as a QR PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := models.EncodeQRPayload(labelData)
		if _, err := models.ParseQRPayload(payload); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), payload)

		if labelOut == "" {
			return nil
		}
		if err := qrcode.WriteFile(payload, qrcode.Medium, labelSize, labelOut); err != nil {
			return fmt.Errorf("write qr code %s: %w", labelOut, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", labelOut)
		return nil
	},
}

func init() {
	f := labelCmd.Flags()
	f.StringVar(&labelData.UPC, "upc", "", "Carton UPC")
	f.StringVar(&labelData.PurchaseOrder, "po", "", "Purchase order number")
	f.StringVar(&labelData.Factory, "factory", "", "Factory code")
	f.StringVar(&labelData.ItemCode, "item", "", "Item code")
	f.StringVarP(&labelOut, "output", "o", "", "PNG file to write")
	f.IntVar(&labelSize, "size", 256, "PNG size in pixels")
	for _, name := range []string{"upc", "po", "factory", "item"} {
		_ = labelCmd.MarkFlagRequired(name)
	}
}
