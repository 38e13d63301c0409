package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"advisor-finder/internal/domain"
	"advisor-finder/internal/repository"
	"advisor-finder/internal/service"
)

func searchCommand() *cobra.Command {
	var (
		categories []string
		interests  []string
		department string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search the advisor directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, pool, err := connect(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			var keyword string
			if len(args) == 1 {
				keyword = args[0]
			}
			limits := service.SearchLimits{MaxTermLength: cfg.SearchMaxTermLength, MaxFacets: cfg.SearchMaxFacets}
			svc := service.NewSearchService(logger, repository.NewPgProfileRepository(pool), limits, nil)
			profiles, err := svc.Search(cmd.Context(), service.SearchInput{
				Term:        keyword,
				Department:  department,
				CategoryIDs: categories,
				InterestIDs: interests,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), profiles)
			}
			return writeTable(cmd.OutOrStdout(), profiles)
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "category ids (repeatable or comma separated)")
	cmd.Flags().StringSliceVarP(&interests, "interest", "i", nil, "research interest ids (repeatable or comma separated)")
	cmd.Flags().StringVarP(&department, "department", "d", "", "match the department only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func writeJSON(w io.Writer, profiles []domain.PublicProfile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(profiles)
}

func writeTable(w io.Writer, profiles []domain.PublicProfile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tINTERESTS")
	for _, p := range profiles {
		names := make([]string, 0, len(p.Interests))
		for _, in := range p.Interests {
			names = append(names, in.Name)
		}
		name := strings.TrimSpace(p.Title + " " + p.FirstName + " " + p.LastName)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, name, p.Department, strings.Join(names, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d advisor(s)\n", len(profiles))
	return err
}
