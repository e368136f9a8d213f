package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/offlinedict/internal/app"
	"github.com/at-ishikawa/offlinedict/internal/assetcache"
	"github.com/at-ishikawa/offlinedict/internal/config"
	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

type MissPolicy string

func (p *MissPolicy) Set(val string) error {
	for _, policy := range allMissPolicies {
		if val == string(policy) {
			*p = policy
			return nil
		}
	}
	return fmt.Errorf("invalid miss policy: %s", val)
}

func (p MissPolicy) String() string {
	return string(p)
}

func (p *MissPolicy) Type() string {
	return "MissPolicy"
}

type Driver string

func (d *Driver) Set(val string) error {
	for _, driver := range allDrivers {
		if val == string(driver) {
			*d = driver
			return nil
		}
	}
	return fmt.Errorf("invalid driver: %s", val)
}

func (d Driver) String() string {
	return string(d)
}

func (d *Driver) Type() string {
	return "Driver"
}

const (
	MissPolicyPassthrough = MissPolicy(assetcache.MissPassthrough)
	MissPolicyPopulate    = MissPolicy(assetcache.MissPopulate)

	DriverFile  Driver = "file"
	DriverMySQL Driver = "mysql"
)

var (
	_               pflag.Value = (*MissPolicy)(nil)
	_               pflag.Value = (*Driver)(nil)
	allMissPolicies             = []MissPolicy{MissPolicyPassthrough, MissPolicyPopulate}
	allDrivers                  = []Driver{DriverFile, DriverMySQL}
)

// appFlags are the flags shared by commands that open the app.
type appFlags struct {
	missPolicy MissPolicy
	driver     Driver
}

func (f *appFlags) register(flags *pflag.FlagSet) {
	flags.Var(&f.missPolicy, "miss-policy", fmt.Sprintf("cache-first miss policy, overrides cache.populate_on_miss. Possible values are %v", allMissPolicies))
	flags.Var(&f.driver, "driver", fmt.Sprintf("bookmark storage, overrides bookmarks.driver. Possible values are %v", allDrivers))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openApp loads the configuration and builds the app. When start is set the cache worker is installed
// and activated; a failure only leaves requests going to the network.
func openApp(cmd *cobra.Command, flags *appFlags, start bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if flags.driver != "" {
		cfg.Bookmarks.Driver = string(flags.driver)
	}

	a, err := app.New(cfg, app.Options{MissPolicy: assetcache.MissPolicy(flags.missPolicy)})
	if err != nil {
		return nil, fmt.Errorf("app.New() > %w", err)
	}
	if start {
		if err := a.Start(cmd.Context()); err != nil {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "Offline cache is not available: %v\n", err)
		}
	}
	return a, nil
}

// syncEntries refreshes the entries and reports offline mode. A failed sync is not fatal: the cached feed is used.
func syncEntries(ctx context.Context, a *app.App, out io.Writer) {
	warn := color.New(color.FgYellow)
	if !a.Store.Enabled() {
		warn.Fprintln(out, "No feed URL is configured. Set feed.url or OFFLINEDICT_FEED_URL.")
		return
	}
	if a.Monitor != nil && !a.Monitor.Probe(ctx) {
		warn.Fprintln(out, "Offline mode: showing cached entries.")
	}
	if err := a.Sync(ctx); err != nil {
		warn.Fprintf(out, "Failed to sync, showing the last synced entries: %v\n", err)
	}
}

func printEntries(out io.Writer, entries dictionary.Collection) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries found.")
		return
	}

	headerFormatter := color.New(color.FgGreen, color.Underline).SprintfFunc()
	tbl := table.New("ID", "Term", "Pronunciation", "Translation A", "Translation B", "Category").
		WithWriter(out).
		WithHeaderFormatter(headerFormatter)
	for _, entry := range entries {
		tbl.AddRow(entry.ID, entry.PrimaryTerm, entry.PrimaryPronunciation, entry.TranslationA, entry.TranslationB, entry.Category)
	}
	tbl.Print()
}

func closeApp(a *app.App, cmd *cobra.Command) {
	if err := a.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed to close: %v\n", err)
	}
}
