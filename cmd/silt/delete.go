package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/silt"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [collection] [id]",
	Short: "Delete a document by identifier",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		mgr, err := openManager(ctx)
		if err != nil {
			fatal("connection failed", err)
		}
		defer mgr.Teardown(ctx)

		repo := silt.NewRepository[map[string]any](mgr, args[0])
		res, err := repo.DeleteOne(ctx, silt.Filter{"_id": args[1]})
		if err != nil {
			fatal("delete failed", err)
		}
		fmt.Printf("deleted %d document(s)\n", res.DeletedCount)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
