package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/server"
)

func userCmd() *cobra.Command {
	u := &cobra.Command{Use: "user", Short: "Inspect and update user profiles"}
	u.AddCommand(&cobra.Command{
		Use:   "show [user-id]",
		Short: "Show a profile with reputation and reviews (defaults to --user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := viper.GetString("user")
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return fmt.Errorf("user id required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				prof, err := e.GetUser(ctx, id)
				if err != nil {
					return err
				}
				return printProfile(prof)
			})
		},
	})
	u.AddCommand(&cobra.Command{
		Use:   "skills <skill>...",
		Short: "Replace the acting user's skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				usr, err := e.SetSkills(ctx, actor, args)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(usr)
				}
				fmt.Printf("%s skills: %s\n", usr.ID, strings.Join(usr.Skills, ", "))
				return nil
			})
		},
	})
	u.AddCommand(&cobra.Command{
		Use:   "set-rating <user-id> <rating|none>",
		Short: "Set or clear a user's imported external rating (0-5)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rating *float64
			if args[1] != "none" {
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid rating %q: %w", args[1], err)
				}
				rating = &v
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				usr, err := e.SetExternalRating(ctx, args[0], rating)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(usr)
				}
				fmt.Printf("Updated %s\n", usr.ID)
				return nil
			})
		},
	})
	return u
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token, err := server.SignToken(server.AuthConfig{JWTSecret: cfg.Secret(), Issuer: cfg.Auth.Issuer, TokenTTL: ttl}, actor)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]string{"token": token})
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func apiKeyCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Create an API key for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if _, err := e.EnsureUser(ctx, actor); err != nil {
					return err
				}
				raw, key, err := e.CreateAPIKey(ctx, actor.ID, name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"id": key.ID, "user_id": key.UserID, "key": raw})
				}
				fmt.Printf("API key %s for %s (shown once):\n%s\n", key.ID, key.UserID, raw)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "label", "", "key label")
	return cmd
}

func printProfile(p engine.UserProfile) error {
	if viper.GetBool("json") {
		return printJSON(p)
	}
	rep := "-"
	if p.Reputation != nil {
		rep = fmt.Sprintf("%.2f", *p.Reputation)
	}
	ext := "-"
	if p.ExternalRating != nil {
		ext = fmt.Sprintf("%.2f", *p.ExternalRating)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Name", p.DisplayName},
		{"Freelancer", p.IsFreelancer},
		{"Skills", strings.Join(p.Skills, ",")},
		{"Average rating", fmt.Sprintf("%.2f (%d reviews)", p.AvgRating, p.ReviewCount)},
		{"External rating", ext},
		{"Reputation", rep},
		{"Projects accepted", p.ProjectsAccepted},
		{"Projects completed", p.ProjectsCompleted},
	})
	tw.Render()
	if len(p.Reviews) > 0 {
		rt := table.NewWriter()
		rt.SetOutputMirror(os.Stdout)
		rt.AppendHeader(table.Row{"Project", "Reviewer", "Rating", "Comment"})
		for _, r := range p.Reviews {
			rt.AppendRow(table.Row{r.ProjectID, r.ReviewerID, r.Rating, r.Comment})
		}
		rt.Render()
	}
	return nil
}
