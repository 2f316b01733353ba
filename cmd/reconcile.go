package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/assignment-tracker/internal/assignment"
	"github.com/frahmantamala/assignment-tracker/internal/storage"
	"github.com/spf13/cobra"
)

var reconcileApply bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Check stored placements against assignment history",
	Long: `Lists employees whose current location differs from the destination of
their latest assignment. With --apply the stored placements are repaired.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileApply, "apply", false, "repair the drifted placements")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer storage.Close(deps.DB)

	var drifts []*assignment.Drift
	if reconcileApply {
		drifts, err = deps.Assignments.Reconcile(ctx)
	} else {
		drifts, err = deps.Assignments.Audit(ctx)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(drifts) == 0 {
		fmt.Fprintln(out, "every placement matches its assignment history")
		return nil
	}
	for _, d := range drifts {
		fmt.Fprintf(out, "%s\tstored=%s\texpected=%s\n", d.EmployeeID, orNone(d.Stored), orNone(d.Expected))
	}
	if reconcileApply {
		fmt.Fprintf(out, "repaired %d placement(s)\n", len(drifts))
	} else {
		fmt.Fprintf(out, "%d placement(s) drifted; run with --apply to repair\n", len(drifts))
	}
	return nil
}

func orNone(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
