package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/services"
)

func newCourtsCommand() *cli.Command {
	return &cli.Command{
		Name:  "courts",
		Usage: "list the configured courts and their pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Usage: "prefix for the printed links"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			baseURL := c.String("base-url")
			if baseURL == "" {
				baseURL = cfg.Server.BaseURL
			}
			return printCourts(c.App.Writer, court.NewRegistry(cfg.CourtEntries()), baseURL)
		},
	}
}

func printCourts(w io.Writer, courts *court.Registry, baseURL string) error {
	baseURL = strings.TrimSuffix(baseURL, "/")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTIMEOUTS\tSETS\tSWAP\tDISPLAY\tCONTROL")
	for _, id := range courts.All() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			id.CourtID,
			id.DisplayName,
			id.Variant.TimeoutSlots,
			id.Variant.SetTracking,
			id.Variant.SwapPolicy,
			baseURL+services.DisplayPath(id.CourtID),
			baseURL+services.ControlPath(id.CourtID),
		)
	}
	return tw.Flush()
}
