package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/ErikPlachta/sheetpipe/pkg/catalog"
	"github.com/spf13/cobra"
)

// operationsCmd represents the operations command group
//
//nolint:gochecknoglobals // Cobra commands are typically global
var operationsCmd = &cobra.Command{
	Use:   "operations",
	Short: "Manage and inspect catalog operation definitions",
	Long:  `Commands for listing and validating the catalog of data operations.`,
}

// operationsListCmd lists all discovered operations
//
//nolint:gochecknoglobals // Cobra commands are typically global
var operationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all discovered operations",
	Long:  `List all discovered catalog operations with their source, cache TTL and parameter names.`,
	RunE:  runOperationsList,
}

func init() {
	rootCmd.AddCommand(operationsCmd)
	operationsCmd.AddCommand(operationsListCmd)
	operationsCmd.PersistentFlags().StringSlice("paths", []string{"./operations"}, "directories to scan for operation definitions")
}

func runOperationsList(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	paths, err := cmd.Flags().GetStringSlice("paths")
	if err != nil {
		return err
	}

	svc, err := catalog.NewService(logger, &catalog.Config{Paths: paths})
	if err != nil {
		return err
	}
	if err := svc.Start(); err != nil {
		return err
	}

	ops := svc.List()
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tCACHE TTL\tPARAMETERS")
	for _, op := range ops {
		params := make([]string, 0, len(op.Parameters))
		for _, p := range op.Parameters {
			params = append(params, p.Name)
		}
		sort.Strings(params)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", op.ID, op.Name, op.Source, op.TTL(), params)
	}

	return w.Flush()
}
