package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/silt"
)

var getStrict bool

var getCmd = &cobra.Command{
	Use:   "get [collection] [id]",
	Short: "Read a document by identifier",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		mgr, err := openManager(ctx)
		if err != nil {
			fatal("connection failed", err)
		}
		defer mgr.Teardown(ctx)

		repo := silt.NewRepository[map[string]any](mgr, args[0])
		filter := silt.Filter{"_id": args[1]}

		var data map[string]any
		if getStrict {
			model, err := repo.FindOneStrict(ctx, filter)
			if err != nil {
				fatal("get failed", err)
			}
			data = model.Data
		} else {
			model, err := repo.FindOne(ctx, filter)
			if err != nil {
				fatal("get failed", err)
			}
			if model == nil {
				fmt.Println("null")
				return
			}
			data = model.Data
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			fatal("encode failed", err)
		}
	},
}

func init() {
	getCmd.Flags().BoolVar(&getStrict, "strict", false, "Fail when the document does not exist")
	rootCmd.AddCommand(getCmd)
}
