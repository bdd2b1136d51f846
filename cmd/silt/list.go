package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/silt"
)

var (
	listLimit int64
	listSkip  int64
	listSort  string
	listDesc  bool
)

var listCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "List documents in a collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		mgr, err := openManager(ctx)
		if err != nil {
			fatal("connection failed", err)
		}
		defer mgr.Teardown(ctx)

		opts := silt.FindOptions{Skip: listSkip, Limit: listLimit}
		if listSort != "" {
			opts.Sort = []silt.SortField{{Field: listSort, Desc: listDesc}}
		}

		repo := silt.NewRepository[map[string]any](mgr, args[0])
		models, err := repo.FindMany(ctx, silt.Filter{}, opts)
		if err != nil {
			fatal("list failed", err)
		}

		encoder := json.NewEncoder(os.Stdout)
		for _, m := range models {
			if err := encoder.Encode(m.Data); err != nil {
				fatal("encode failed", err)
			}
		}
	},
}

func init() {
	listCmd.Flags().Int64Var(&listLimit, "limit", 0, "Maximum number of documents (0 = no limit)")
	listCmd.Flags().Int64Var(&listSkip, "skip", 0, "Number of documents to skip")
	listCmd.Flags().StringVar(&listSort, "sort", "", "Field to sort by")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	rootCmd.AddCommand(listCmd)
}
