package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Someesvaar/Freelance-Hub/internal/app"
	"github.com/Someesvaar/Freelance-Hub/internal/config"
	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/logger"
	"github.com/Someesvaar/Freelance-Hub/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "freelancehub",
	Short: "Freelance Hub CLI",
	Long: `Freelance Hub runs the engagement lifecycle of freelance projects.
- Project: posted by a client with a budget; open while it collects bids.
- Bid: one per freelancer per open project; never edited or withdrawn.
- Ranking: bids scored on price, timeline and reputation under a priority (balanced, price, time, ratings).
- Engagement: open -> in_progress -> pending_review -> (needs_revision -> pending_review)* -> completed.
- Reviews: once completed, client and freelancer may each rate the other once.
- Event log: every change is recorded, view with 'freelancehub log'.
Commands act as --user (set --freelancer for freelancer identities).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(viper.GetString("log-level"))
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("FREELANCEHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("config", "", "config file (default <workspace>/freelancehub.yml)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().StringP("user", "u", "", "acting user id")
	rootCmd.PersistentFlags().String("name", "", "acting user display name")
	rootCmd.PersistentFlags().Bool("freelancer", false, "acting user is a freelancer")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	for _, name := range []string{"workspace", "config", "json", "user", "name", "freelancer", "log-level"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(bidCmd())
	rootCmd.AddCommand(rankCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(apiKeyCmd())
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the workspace config and database",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Init(cmd.Context(), viper.GetString("workspace"), force)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(res)
			}
			if res.ConfigWritten {
				fmt.Printf("Wrote %s\n", res.ConfigPath)
			} else {
				fmt.Printf("Kept existing %s\n", res.ConfigPath)
			}
			fmt.Printf("Database %s at schema version %d\n", res.DBPath, res.SchemaVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			cfg := ws.Config
			if !cmd.Flags().Changed("log-level") && cfg.Log.Level != "" {
				logger.Init(cfg.Log.Level)
			}
			if !cmd.Flags().Changed("addr") && cfg.Server.Addr != "" {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") && cfg.Server.BasePath != "" {
				basePath = cfg.Server.BasePath
			}
			authCfg := server.AuthConfig{JWTSecret: cfg.Secret(), Issuer: cfg.Auth.Issuer, DevLogin: cfg.Auth.DevLogin}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("%s or auth.jwt_secret is required for bearer auth", config.JWTSecretEnv)
			}
			handler, err := server.New(server.Config{Engine: ws.Engine, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			server.StartWebhooks(cmd.Context(), ws.Engine)
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info().Str("addr", addr).Str("base_path", basePath).Bool("dev_login", authCfg.DevLogin).Msg("serving")
			fmt.Printf("Serving Freelance Hub API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/api", "API base path")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]bool{"valid": true})
			}
			fmt.Println("config ok")
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "default",
		Short: "Print the default config file",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(config.GenerateDefault())
		},
	})
	return cfg
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	if path := viper.GetString("config"); path != "" {
		return config.FromFile(path)
	}
	cfg, err := config.LoadOptional(viper.GetString("workspace"))
	if err != nil || cfg != nil {
		return cfg, err
	}
	return config.Default(), nil
}

func openWorkspace(ctx context.Context) (*app.Workspace, error) {
	return app.Open(ctx, viper.GetString("workspace"), app.Options{ConfigPath: viper.GetString("config")})
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws.Engine)
}

// currentActor is the identity commands act as.
func currentActor() (auth.Actor, error) {
	id := strings.TrimSpace(viper.GetString("user"))
	if id == "" {
		return auth.Actor{}, fmt.Errorf("--user (or FREELANCEHUB_USER) is required")
	}
	name := strings.TrimSpace(viper.GetString("name"))
	if name == "" {
		name = id
	}
	return auth.Actor{ID: id, DisplayName: name, IsFreelancer: viper.GetBool("freelancer")}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalInt(cmd *cobra.Command, flag string, v int) *int {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}

func strOrDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}
