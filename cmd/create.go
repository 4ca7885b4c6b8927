package cmd

import (
	"fmt"
	"strings"

	"github.com/fbz-tec/storexport/core/catalog"
	"github.com/fbz-tec/storexport/core/config"
	"github.com/fbz-tec/storexport/core/export"
	"github.com/fbz-tec/storexport/core/resolve"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/spf13/cobra"
)

// requestFlags are the flags describing one export request.
type requestFlags struct {
	profile     string
	kind        string
	name        string
	fields      []string
	meta        []string
	taxonomies  []string
	formats     []string
	columnOrder []string
	headers     map[string]string
	compression string

	types     []string
	statuses  []string
	roles     []string
	mode      string
	dateRange string
	dateFrom  string
	dateTo    string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.SortFlags = false
	fl.StringVarP(&f.profile, "profile", "f", "", "YAML export profile; explicit flags override its values")
	fl.StringVarP(&f.kind, "kind", "k", "", "Entity kind (product, user, order)")
	fl.StringVarP(&f.name, "name", "n", "", "Export name used in file names")
	fl.StringSliceVar(&f.fields, "fields", nil, "Standard fields to export")
	fl.StringSliceVar(&f.meta, "meta", nil, "Meta keys to export")
	fl.StringSliceVar(&f.taxonomies, "taxonomies", nil, "Product taxonomies to export")
	fl.StringSliceVar(&f.formats, "formats", nil, "Output formats (csv, json, xml, spreadsheet)")
	fl.StringSliceVar(&f.columnOrder, "column-order", nil, "Explicit column order")
	fl.StringToStringVar(&f.headers, "header", nil, "Header renames, e.g. --header Title=Name")
	fl.StringVar(&f.compression, "job-compression", "", "Compression override for this export")

	fl.StringSliceVar(&f.types, "types", nil, "Product types filter")
	fl.StringSliceVar(&f.statuses, "statuses", nil, "Product or order statuses filter")
	fl.StringSliceVar(&f.roles, "roles", nil, "User roles filter")
	fl.StringVar(&f.mode, "mode", "", "Product date column (all, created, modified)")
	fl.StringVar(&f.dateRange, "date-range", "", "Date range (all, last30, last60, last90, last180, custom)")
	fl.StringVar(&f.dateFrom, "from", "", "Custom range start (YYYY-MM-DD)")
	fl.StringVar(&f.dateTo, "to", "", "Custom range end (YYYY-MM-DD)")
}

// request merges the profile, if any, with explicit flags.
func (f *requestFlags) request(cmd *cobra.Command) (export.CreateRequest, error) {
	var req export.CreateRequest
	if f.profile != "" {
		p, err := config.LoadProfile(f.profile)
		if err != nil {
			return req, err
		}
		logger.Debug("Loaded profile %s", f.profile)
		req = profileRequest(p)
	}

	fl := cmd.Flags()
	setString := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = strings.TrimSpace(v)
		}
	}
	setList := func(name string, dst *[]string, v []string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	setString("kind", &req.Kind, f.kind)
	setString("name", &req.Name, f.name)
	setString("job-compression", &req.Compression, f.compression)
	setList("fields", &req.Fields, f.fields)
	setList("meta", &req.Meta, f.meta)
	setList("taxonomies", &req.Taxonomies, f.taxonomies)
	setList("formats", &req.Formats, f.formats)
	setList("column-order", &req.ColumnOrder, f.columnOrder)
	if fl.Changed("header") {
		req.HeaderMap = f.headers
	}

	kind := catalog.Kind(strings.ToLower(req.Kind))
	setList("types", &req.Filters.ProductTypes, f.types)
	setList("roles", &req.Filters.UserRoles, f.roles)
	if kind == catalog.KindOrder {
		setList("statuses", &req.Filters.OrderStatuses, f.statuses)
	} else {
		setList("statuses", &req.Filters.ProductStatuses, f.statuses)
	}
	setString("mode", &req.Filters.ExportMode, f.mode)
	setString("date-range", &req.Filters.DateRange, f.dateRange)
	setString("from", &req.Filters.DateFrom, f.dateFrom)
	setString("to", &req.Filters.DateTo, f.dateTo)

	if req.Kind == "" {
		return req, fmt.Errorf("error: --kind or a --profile with a kind is required")
	}
	return req, nil
}

func profileRequest(p *config.Profile) export.CreateRequest {
	req := export.CreateRequest{
		Kind:        p.Kind,
		Name:        p.Name,
		Fields:      p.Fields,
		Meta:        p.Meta,
		Taxonomies:  p.Taxonomies,
		Formats:     p.Formats,
		ColumnOrder: p.ColumnOrder,
		HeaderMap:   p.Headers,
		Filters: resolve.FilterSpec{
			ProductTypes: p.Filters.Types,
			UserRoles:    p.Filters.Roles,
			ExportMode:   p.Filters.Mode,
			DateRange:    p.Filters.DateRange,
			DateFrom:     p.Filters.DateFrom,
			DateTo:       p.Filters.DateTo,
		},
	}
	if catalog.Kind(strings.ToLower(p.Kind)) == catalog.KindOrder {
		req.Filters.OrderStatuses = p.Filters.Statuses
	} else {
		req.Filters.ProductStatuses = p.Filters.Statuses
	}
	return req
}

var createFlags requestFlags

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an export job and print its id",
	Example: `  storexport create --kind product --fields Title,SKU,"Parent ID" --formats csv,spreadsheet
  storexport create --profile spring.yaml --name "Spring sale"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := createFlags.request(cmd)
		if err != nil {
			return err
		}
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		res, err := e.engine.CreateExport(cmd.Context(), req)
		if err != nil {
			return err
		}
		logger.Success("Export %s created: %d item(s), formats %s", res.JobID, res.Total, strings.Join(res.Formats, ", "))
		fmt.Fprintln(cmd.OutOrStdout(), res.JobID)
		return nil
	},
}

func init() {
	createFlags.register(createCmd)
}
