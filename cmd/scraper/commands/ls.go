package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"school-scraper/internal/storage"
)

func init() {
	rootCmd.AddCommand(lsCmd)
}

var lsCmd = &cobra.Command{
	Use:   "ls <location-prefix>",
	Short: "Lists stored objects under a location prefix (s3://bucket/prefix or a local path).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		loc, err := storage.ParseLocation(args[0])
		if err != nil {
			return err
		}
		store, err := storage.Open(ctx, loc, storageOptions())
		if err != nil {
			return err
		}
		keys, err := store.List(ctx, loc.Key)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Object"})
		for _, k := range keys {
			t.AppendRow(table.Row{storage.Location{Bucket: loc.Bucket, Key: k}.String()})
		}
		t.AppendFooter(table.Row{len(keys)})
		t.Render()
		return nil
	},
}
