package main

import (
	"context"
	"fmt"
	"os"

	"daily-meals/internal/config"
	applog "daily-meals/internal/logger"
	"daily-meals/internal/service"

	"github.com/spf13/cobra"
)

func exportCmd(configFile *string) *cobra.Command {
	var f service.ExportFilter
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered reports to a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg := config.Load(*configFile)
			cfg.Log.Console = false
			applog.Init(cfg.Log)

			f = f.Normalize()
			db, _, err := openStore(cfg)
			if err != nil {
				return err
			}
			exp := service.NewExportService(db)
			rows, err := exp.Rows(context.Background(), f)
			if err != nil {
				return err
			}
			if out == "" {
				out = f.FileName()
			}
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer func() {
				if cerr := file.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("close %s: %w", out, cerr)
				}
			}()
			if err := exp.Write(file, f, rows); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", len(rows), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Area, "area", "", "area filter")
	cmd.Flags().StringVar(&f.Center, "center", "", "center filter")
	cmd.Flags().StringVar(&f.From, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.To, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.Format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default dotacion_<from>_<to>.<ext>)")
	return cmd
}
