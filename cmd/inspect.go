package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fbz-tec/storexport/core/export"
	"github.com/spf13/cobra"
)

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the persisted state of an export job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		st, err := e.engine.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, st)
	},
}

var previewReq export.PreviewRequest

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Map a small sample of records without creating a job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		p, err := e.engine.PreviewSample(cmd.Context(), previewReq)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(p.Columns, "\t"))
		for _, row := range p.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	},
}

var fieldsCmd = &cobra.Command{
	Use:       "fields <kind>",
	Short:     "List the fields, meta keys, taxonomies and filter options of a kind",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"product", "user", "order"},
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		cat, err := e.engine.Describe(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		opts, err := e.engine.Options(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{"catalog": cat, "options": opts})
	},
}

func init() {
	fl := previewCmd.Flags()
	fl.StringVarP(&previewReq.Kind, "kind", "k", "", "Entity kind (product, user, order)")
	fl.StringSliceVar(&previewReq.Fields, "fields", nil, "Standard fields, ID included")
	fl.StringSliceVar(&previewReq.Meta, "meta", nil, "Meta keys")
	fl.StringSliceVar(&previewReq.Taxonomies, "taxonomies", nil, "Product taxonomies")
	_ = previewCmd.MarkFlagRequired("kind")
}
