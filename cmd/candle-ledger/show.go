package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"CandleLedger/internal/ledger"
	"CandleLedger/internal/model"
)

var showLast int

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the newest ledger records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		records, err := ledger.NewStore(cfg.Ledger.Path, cfg.Ledger.MaxRecords).Last(showLast)
		if err != nil {
			return err
		}
		return printRecords(cmd.OutOrStdout(), records)
	},
}

func init() {
	showCmd.Flags().IntVarP(&showLast, "last", "n", 7, "number of records to print (0 for all)")
}

func printRecords(out io.Writer, records []model.DailyRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "ledger is empty")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "DATE\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME(M)\t")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%.2f\t\n", r.Date, r.Open, r.High, r.Low, r.Close, r.Volume)
	}
	return w.Flush()
}
