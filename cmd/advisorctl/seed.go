package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advisor-finder/internal/repository"
	"advisor-finder/internal/seed"
)

func seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the research catalog and sample lecturers into empty tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			defer logger.Sync()

			catalog, err := loadCatalog(file)
			if err != nil {
				return err
			}

			_, pool, err := connect(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			seeder := seed.NewSeeder(logger, repository.NewPgResearchRepository(pool), repository.NewPgProfileRepository(pool))
			res, err := seeder.Apply(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			logger.Info("seed finished",
				zap.Int("categories", res.Categories),
				zap.Int("interests", res.Interests),
				zap.Int("lecturers", res.Lecturers),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML file (defaults to the embedded catalog)")
	return cmd
}

func loadCatalog(file string) (*seed.Catalog, error) {
	if file == "" {
		return seed.DefaultCatalog()
	}
	return seed.LoadCatalogFile(file)
}
