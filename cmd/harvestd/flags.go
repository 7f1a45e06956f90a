package main

import (
	"time"

	"github.com/spf13/cobra"
)

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// APIFlags holds daemon connection flags shared by all remote commands
type APIFlags struct {
	Name       string
	APIUrl     string
	APITimeout time.Duration
}

// FarmFlags holds flags for add and edit commands
type FarmFlags struct {
	APIFlags
	Coords  string
	Output  string
	Runtime int     // minutes
	Regrow  float64 // hours
}

// StatusFlags holds flags for the status command
type StatusFlags struct {
	APIFlags
}

// ListFlags holds flags for the list command
type ListFlags struct {
	APIFlags
	Filter string
	Limit  int
}

// ServeFlags holds flags for the serve command
type ServeFlags struct {
	ConfigPath string
}

func addAPIFlags(cmd *cobra.Command, f *APIFlags) {
	cmd.Flags().StringVar(&f.APIUrl, "api-url", "", "daemon URL (e.g. http://host:8511/api)")
	cmd.Flags().DurationVar(&f.APITimeout, "api-timeout", 10*time.Second, "request timeout")
}

func addFarmFlags(cmd *cobra.Command, f *FarmFlags, required bool) {
	cmd.Flags().StringVar(&f.Name, "name", "", "farm name (required)")
	cmd.Flags().StringVar(&f.Coords, "coords", "", "farm coordinates")
	cmd.Flags().StringVar(&f.Output, "output", "", "expected total output")
	cmd.Flags().IntVar(&f.Runtime, "runtime", 0, "active harvest duration in minutes")
	cmd.Flags().Float64Var(&f.Regrow, "regrow", 0, "regrow duration in hours")
	addAPIFlags(cmd, &f.APIFlags)
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	if required {
		for _, name := range []string{"runtime", "regrow"} {
			if err := cmd.MarkFlagRequired(name); err != nil {
				panic(err)
			}
		}
	}
}
