package main

import (
	"fmt"
	"strconv"

	"diwan-api/config"
	"diwan-api/models"
	"diwan-api/services"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}

func newSeedCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-categories",
		Short: "Install the default category set (existing slugs are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}
			repo := services.NewCategoryRepository(db)
			rows := make([][]string, 0, len(models.DefaultCategories))
			for _, seed := range models.DefaultCategories {
				category := seed
				exists, err := repo.CategorySlugExists(cmd.Context(), category.Slug, 0)
				if err != nil {
					return err
				}
				state := "exists"
				if !exists {
					if err := repo.CreateCategory(cmd.Context(), &category); err != nil {
						return err
					}
					state = "created"
				}
				rows = append(rows, []string{category.Slug, category.NameAr, strconv.Itoa(category.DisplayOrder), state})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Slug", "Name", "Order", "State"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show submission counts per workflow status",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.ensureDB()
			if err != nil {
				return err
			}
			reviews := services.NewReviewService(services.NewSubmissionRepository(db), services.WorkflowOptions{Logger: ctx.logger})
			stats, err := reviews.Statistics(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(models.AllStatuses)+1)
			for _, status := range models.AllStatuses {
				rows = append(rows, []string{string(status), strconv.FormatInt(stats.ByStatus[status], 10)})
			}
			rows = append(rows, []string{"total", strconv.FormatInt(stats.Total, 10)})
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Status", "Submissions"}, rows, []columnAlignment{alignLeft, alignRight}))
			if stats.AvgSecondsToPublish != nil {
				fmt.Fprintf(out, "Average time to publish: %.1f hours\n", *stats.AvgSecondsToPublish/3600)
			} else {
				fmt.Fprintln(out, "Average time to publish: n/a")
			}
			return nil
		},
	}
}
