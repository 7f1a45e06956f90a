package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires up all subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	farmFlags := &FarmFlags{}
	editFlags := &FarmFlags{}
	removeFlags := &APIFlags{}
	statusFlags := &StatusFlags{}
	listFlags := &ListFlags{}
	serveFlags := &ServeFlags{}

	hc := command{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createAddCommand(hc, farmFlags),
		createEditCommand(hc, editFlags),
		createRemoveCommand(hc, removeFlags),
		createStatusCommand(hc, statusFlags),
		createListCommand(hc, listFlags),
		createServeCommand(globalFlags, serveFlags),
		createInitCommand(),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "harvestd",
		Short: "Farm lifecycle tracking daemon",
		Long: `Harvestd tracks the farming lifecycle of named farm plots. It consumes
a chat feed of start/finish events, schedules readiness notifications,
and survives restarts without losing or duplicating them.

Examples:
  harvestd serve --config=harvestd.toml       # Start daemon
  harvestd add --name="Wheat Farm" --runtime=30 --regrow=2
  harvestd status --name=wheat
  harvestd status --api-url=http://remote:8511/api`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

// createAddCommand creates the add subcommand
func createAddCommand(hc command, f *FarmFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new farm to tracking",
		Long: `Add a farm to the running daemon. Runtime is the expected length of an
active harvest in minutes; regrow is the time from finish to the next
readiness in hours.

Examples:
  harvestd add --name="Wheat Farm" --coords="120, -400" --runtime=30 --regrow=2
  harvestd add --name="Melon Farm" --output="9 stacks" --runtime=45 --regrow=3.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hc.Add(*f)
		},
	}
	addFarmFlags(cmd, f, true)
	return cmd
}

// createEditCommand creates the edit subcommand
func createEditCommand(hc command, f *FarmFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit an existing farm",
		Long: `Edit static fields of a tracked farm. Only the flags you pass change;
lifecycle state and pending notifications are untouched.

Examples:
  harvestd edit --name=wheat --regrow=4
  harvestd edit --name="Melon Farm" --coords="9, 9" --output="12 stacks"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hc.Edit(*f, cmd)
		},
	}
	addFarmFlags(cmd, f, false)
	return cmd
}

// createRemoveCommand creates the remove subcommand
func createRemoveCommand(hc command, f *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a farm from tracking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return hc.Remove(*f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "farm name, exact or partial (required)")
	addAPIFlags(cmd, f)
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(hc command, f *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show farm status",
		Long: `Show the current state of one farm, or of every tracked farm when no
name is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return hc.Status(*f)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "farm name, exact or partial (all farms when empty)")
	addAPIFlags(cmd, &f.APIFlags)
	return cmd
}

// createListCommand creates the list subcommand
func createListCommand(hc command, f *ListFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked farm names",
		RunE: func(cmd *cobra.Command, args []string) error {
			return hc.List(*f)
		},
	}
	cmd.Flags().StringVar(&f.Filter, "filter", "", "name prefix filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 25, "maximum names to return")
	addAPIFlags(cmd, &f.APIFlags)
	return cmd
}
