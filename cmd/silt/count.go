package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/silt"
)

var countCmd = &cobra.Command{
	Use:   "count [collection]",
	Short: "Count documents in a collection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		mgr, err := openManager(ctx)
		if err != nil {
			fatal("connection failed", err)
		}
		defer mgr.Teardown(ctx)

		repo := silt.NewRepository[map[string]any](mgr, args[0])
		n, err := repo.CountDocuments(ctx, silt.Filter{})
		if err != nil {
			fatal("count failed", err)
		}
		fmt.Println(n)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
