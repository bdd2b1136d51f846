package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/silt"
)

var insertCmd = &cobra.Command{
	Use:   "insert [collection] [json]",
	Short: "Insert a document",
	Long:  `Insert a JSON document into a collection. An identifier and timestamps are assigned automatically.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		var input map[string]any
		if err := json.Unmarshal([]byte(args[1]), &input); err != nil {
			fatal("invalid JSON document", err)
		}

		mgr, err := openManager(ctx)
		if err != nil {
			fatal("connection failed", err)
		}
		defer mgr.Teardown(ctx)

		repo := silt.NewRepository[map[string]any](mgr, args[0])
		doc, _, err := repo.InsertOne(ctx, input)
		if err != nil {
			fatal("insert failed", err)
		}
		fmt.Println(doc.ID())
	},
}

func init() {
	rootCmd.AddCommand(insertCmd)
}
