package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/foomo/auditwalker/manifest"
	"github.com/spf13/cobra"
)

func newRoutesCmd() *cobra.Command {
	var mode string
	var lighthouse bool
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes of a mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, errConf := loadConfig()
			if errConf != nil {
				return errConf
			}
			if mode == "" {
				mode = conf.Mode
			}
			tag, errMode := manifest.ParseMode(mode)
			if errMode != nil {
				return &exitError{code: exitPrecondition, err: errMode}
			}
			routes := manifest.GetRoutes(tag)
			if lighthouse {
				routes = manifest.GetLighthouseRoutes()
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tPATH\tAUTH\tVIEWPORT\tTABS\tTAGS")
			for _, r := range routes {
				tags := make([]string, len(r.Tags))
				for i, t := range r.Tags {
					tags[i] = string(t)
				}
				viewport := string(r.Viewport)
				if viewport == "" {
					viewport = "any"
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%s\n", r.Label, r.Path, r.RequiresAuth, viewport, strings.Join(r.HasTabs, ","), strings.Join(tags, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "smoke or full")
	cmd.Flags().BoolVar(&lighthouse, "lighthouse", false, "list the routes tagged for performance audits instead")
	return cmd
}
