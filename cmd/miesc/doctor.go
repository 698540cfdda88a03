package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report the availability of every registered adapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, configDir)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		snapshot := a.registry.AvailabilitySnapshot(ctx)

		ids := make([]string, 0, len(snapshot))
		for id := range snapshot {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			fmt.Printf("%-20s %s\n", id, snapshot[id])
		}
		return nil
	},
}
