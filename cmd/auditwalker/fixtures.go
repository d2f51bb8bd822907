package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/foomo/auditwalker"
	"github.com/foomo/auditwalker/fixtures"
	"github.com/spf13/cobra"
)

func newFixturesCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Show the resolved fixtures, --check requests their pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, errConf := loadConfig()
			if errConf != nil {
				return errConf
			}
			registry := fixtures.NewRegistry(conf.Fixtures)
			set := registry.Set()
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVALUE\tENV\tDEFAULT")
			for _, f := range fixtures.Defaults() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, set[f.Name], f.Env, f.Default)
			}
			if errFlush := tw.Flush(); errFlush != nil {
				return errFlush
			}
			if !check {
				return nil
			}
			if errValidate := conf.Validate(); errValidate != nil {
				return &auditwalker.PreconditionError{Err: errValidate}
			}
			client := fixtures.NewClient(conf.NetworkIdleTimeout)
			if errFixtures := fixtures.Validate(cmd.Context(), client, conf.BaseURL, conf.Agent, registry.Checks(), set); errFixtures != nil {
				return &auditwalker.PreconditionError{Err: errFixtures}
			}
			fmt.Println("all fixtures reachable on", conf.BaseURL)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "request the canonical page of every fixture")
	return cmd
}
