package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/app"
	"github.com/pageza/foodgram/backend/internal/seed"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

var (
	seedFile string

	superuser types.RegisterRequest

	deleteUserID uint

	rootCmd = &cobra.Command{
		Use:           "manage",
		Short:         "Administrative commands for the foodgram backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load catalog data (existing rows are left alone)",
	}
	seedTagsCmd = &cobra.Command{
		Use:   "tags",
		Short: "Load tags from --file, or the default meal tags",
		RunE:  runSeed(seedTags),
	}
	seedIngredientsCmd = &cobra.Command{
		Use:   "ingredients",
		Short: "Load ingredients from --file, or a small default set",
		RunE:  runSeed(seedIngredients),
	}
	seedDemoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Create demo users with one recipe each",
		RunE:  runSeed(seedDemo),
	}
	seedAllCmd = &cobra.Command{
		Use:   "all",
		Short: "Load the default tags and ingredients, then the demo data",
		RunE:  runSeed(seedTags, seedIngredients, seedDemo),
	}

	createSuperuserCmd = &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a staff account",
		RunE:  runCreateSuperuser,
	}

	deleteUserCmd = &cobra.Command{
		Use:   "deleteuser",
		Short: "Delete an account with its recipes and subscriptions",
		RunE:  runDeleteUser,
	}
)

func init() {
	seedTagsCmd.Flags().StringVarP(&seedFile, "file", "f", "", "JSON file with [{name, color, slug}]")
	seedIngredientsCmd.Flags().StringVarP(&seedFile, "file", "f", "", "JSON file with [{name, measurement_unit}]")
	seedCmd.AddCommand(seedTagsCmd, seedIngredientsCmd, seedDemoCmd, seedAllCmd)

	f := createSuperuserCmd.Flags()
	f.StringVar(&superuser.Email, "email", "", "email address (required)")
	f.StringVar(&superuser.Username, "username", "", "username (required)")
	f.StringVar(&superuser.Password, "password", "", "password (required)")
	f.StringVar(&superuser.FirstName, "first-name", "", "first name")
	f.StringVar(&superuser.LastName, "last-name", "", "last name")
	_ = createSuperuserCmd.MarkFlagRequired("email")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("password")

	deleteUserCmd.Flags().UintVar(&deleteUserID, "id", 0, "user id (required)")
	_ = deleteUserCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(migrateCmd, seedCmd, createSuperuserCmd, deleteUserCmd)
}

// openApp loads configuration and connects without Redis.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	app.InitLogging(cfg)
	return app.Open(ctx, cfg, false)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
	return nil
}

type seeder func(ctx context.Context, a *app.App, file string) (string, error)

func seedTags(ctx context.Context, a *app.App, file string) (string, error) {
	n, err := seed.Tags(ctx, a.Catalog, file)
	return fmt.Sprintf("Tags loaded: %d new.", n), err
}

func seedIngredients(ctx context.Context, a *app.App, file string) (string, error) {
	n, err := seed.Ingredients(ctx, a.Catalog, file)
	return fmt.Sprintf("Ingredients loaded: %d new.", n), err
}

func seedDemo(ctx context.Context, a *app.App, _ string) (string, error) {
	users, recipes, err := seed.Demo(ctx, a.Auth, a.Recipes, a.Catalog)
	return fmt.Sprintf("Demo users created: %d, recipes: %d.", users, recipes), err
}

func runSeed(steps ...seeder) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, step := range steps {
			msg, err := step(ctx, a, seedFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		}
		return nil
	}
}

func runCreateSuperuser(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Auth.CreateSuperuser(cmd.Context(), superuser)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s (id %d) created.\n", user.Username, user.ID)
	return nil
}

func runDeleteUser(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Users.DeleteUser(cmd.Context(), deleteUserID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return fmt.Errorf("user %d does not exist", deleteUserID)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "User %d deleted.\n", deleteUserID)
	return nil
}
