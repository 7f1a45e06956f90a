package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/loykin/harvestd/pkg/client"
	"github.com/spf13/cobra"
)

type command struct{}

func apiClient(f APIFlags) (*client.Client, error) {
	cfg := client.DefaultConfig()
	if f.APIUrl != "" {
		cfg.BaseURL = f.APIUrl
	}
	if f.APITimeout > 0 {
		cfg.Timeout = f.APITimeout
	}
	c := client.New(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !c.IsReachable(ctx) {
		return nil, fmt.Errorf("daemon not reachable at %s - start it first with 'harvestd serve'", cfg.BaseURL)
	}
	return c, nil
}

// Add registers a new farm with the daemon
func (command) Add(f FarmFlags) error {
	c, err := apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	req := client.FarmRequest{Name: f.Name}
	if f.Coords != "" {
		req.Coords = &f.Coords
	}
	if f.Output != "" {
		req.Output = &f.Output
	}
	req.RuntimeMinutes = &f.Runtime
	req.RegrowHours = &f.Regrow
	if err := c.AddFarm(context.Background(), req); err != nil {
		return err
	}
	fmt.Printf("Added farm %q (runtime %dm, regrow %.2gh)\n", f.Name, f.Runtime, f.Regrow)
	return nil
}

// Edit updates fields of an existing farm. Only flags the user actually set
// are sent, so unset numeric flags do not zero the stored values.
func (command) Edit(f FarmFlags, cmd *cobra.Command) error {
	c, err := apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	var req client.FarmRequest
	if cmd.Flags().Changed("coords") {
		req.Coords = &f.Coords
	}
	if cmd.Flags().Changed("output") {
		req.Output = &f.Output
	}
	if cmd.Flags().Changed("runtime") {
		req.RuntimeMinutes = &f.Runtime
	}
	if cmd.Flags().Changed("regrow") {
		req.RegrowHours = &f.Regrow
	}
	st, err := c.EditFarm(context.Background(), f.Name, req)
	if err != nil {
		return err
	}
	printJSON(st)
	return nil
}

// Remove drops a farm from tracking
func (command) Remove(f APIFlags) error {
	c, err := apiClient(f)
	if err != nil {
		return err
	}
	if err := c.RemoveFarm(context.Background(), f.Name); err != nil {
		return err
	}
	fmt.Printf("Removed farm %q\n", f.Name)
	return nil
}

// Status prints one farm's status, or all farms when no name is given
func (command) Status(f StatusFlags) error {
	c, err := apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	if f.Name != "" {
		st, err := c.Status(context.Background(), f.Name)
		if err != nil {
			return err
		}
		printJSON(st)
		return nil
	}
	sts, err := c.Statuses(context.Background())
	if err != nil {
		return err
	}
	printJSON(sts)
	return nil
}

// List prints tracked farm names
func (command) List(f ListFlags) error {
	c, err := apiClient(f.APIFlags)
	if err != nil {
		return err
	}
	names, err := c.ListNames(context.Background(), f.Filter, f.Limit)
	if err != nil {
		return err
	}
	printJSON(names)
	return nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
