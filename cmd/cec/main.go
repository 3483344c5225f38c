package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"chemecare/internal/app"
	"chemecare/internal/config"
	"chemecare/internal/domain"
	"chemecare/internal/engine"
	"chemecare/internal/server"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "cec",
	Short: "Chem-E-Care CLI",
	Long: `Chem-E-Care is a chemical facility monitoring hub.
It keeps an ordered event log, routes events through a fixed-rule
orchestrator into alerts and a decision log, and uses an LLM to turn
recent events into prioritized action items and analysis reports.
Set CHEMECARE_API_KEY to enable the AI features; everything else works
without it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if viper.GetBool("verbose") {
			zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CHEMECARE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("data-dir", "d", ".", "data directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	_ = viper.BindPFlag("data-dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(eventCmd())
	rootCmd.AddCommand(triageCmd())
	rootCmd.AddCommand(decisionCmd())
	rootCmd.AddCommand(alertCmd())
	rootCmd.AddCommand(todoCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(benefitsCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func withSession(ctx context.Context, fn func(context.Context, *app.Session) error) error {
	s, err := app.Open(viper.GetString("data-dir"), viper.GetString("api-key"), logger)
	if err != nil {
		return err
	}
	return fn(ctx, s)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				out := map[string]any{
					"facility": s.Config.Facility.Name,
					"ai_ready": s.Engine.AIReady(),
					"events":   s.Engine.Events.Len(),
					"todos":    s.Engine.Todos.Count(),
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				fmt.Printf("Facility: %s\n", s.Config.Facility.Name)
				fmt.Printf("Events: %d, Todos: %d\n", s.Engine.Events.Len(), s.Engine.Todos.Count())
				if s.Engine.AIReady() {
					fmt.Println("AI: ready")
				} else {
					fmt.Println("AI: disabled (set CHEMECARE_API_KEY)")
				}
				return nil
			})
		},
	}
}

func eventCmd() *cobra.Command {
	ev := &cobra.Command{Use: "event", Short: "Manage facility events"}
	ev.AddCommand(eventAddCmd())
	ev.AddCommand(eventListCmd())
	ev.AddCommand(eventShowCmd())
	return ev
}

func eventAddCmd() *cobra.Command {
	var eventType, details string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a new event",
		Long:  "Log a facility event. Types: " + strings.Join(domain.EventTypes, ", ") + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				e, err := s.Engine.AddEvent(eventType, details)
				if err != nil {
					return err
				}
				return printJSONOrTable(e)
			})
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "event type")
	cmd.Flags().StringVar(&details, "details", "", "event details")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("details")
	return cmd
}

func eventListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				events := s.Engine.Events.List(limit)
				if viper.GetBool("json") {
					return printJSON(events)
				}
				now := time.Now()
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Type", "Details", "Age", "Status"})
				for _, e := range events {
					tw.AppendRow(table.Row{e.ID, e.Type, e.Details, domain.TimeAgo(e.Time, now), e.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max events to list (0 = all)")
	return cmd
}

func eventShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid event id %q", args[0])
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				e, err := s.Engine.Events.Get(id)
				if err != nil {
					return err
				}
				return printJSONOrTable(e)
			})
		},
	}
	return cmd
}

func triageCmd() *cobra.Command {
	var safety, compliance, assetRisk bool
	cmd := &cobra.Command{
		Use:   "triage <event-id>",
		Short: "Run the orchestrator on an event",
		Long: `Answer the three triage questions for an event. Safety impact
escalates immediately; compliance deviation or asset health risk schedules
a task; all-clear auto-resolves. The decision and its alert are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid event id %q", args[0])
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				d, err := s.Engine.Orchestrate(id, domain.Answers{
					SafetyImpact:        safety,
					ComplianceDeviation: compliance,
					AssetHealthRisk:     assetRisk,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"decision": d,
						"alerts":   s.Engine.ActiveAlerts(),
					})
				}
				fmt.Printf("Outcome: %s\n", d.Outcome)
				for _, a := range s.Engine.ActiveAlerts() {
					fmt.Printf("Alert: %s (respond within %s)\n", a.Type, domain.FormatUrgency(a.Urgency))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&safety, "safety", false, "safety impact")
	cmd.Flags().BoolVar(&compliance, "compliance", false, "compliance deviation")
	cmd.Flags().BoolVar(&assetRisk, "asset-risk", false, "asset health risk")
	return cmd
}

func decisionCmd() *cobra.Command {
	dc := &cobra.Command{Use: "decision", Short: "Orchestrator decision log"}
	dc.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List decisions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				return printJSONOrTable(s.Engine.Decisions())
			})
		},
	})
	return dc
}

func alertCmd() *cobra.Command {
	al := &cobra.Command{Use: "alert", Short: "Alert matrix"}
	al.AddCommand(&cobra.Command{
		Use:   "catalog",
		Short: "Show the alert category catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				types := s.Engine.AlertCatalog()
				if viper.GetBool("json") {
					return printJSON(types)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Type", "Respond", "Auto Action"})
				for _, t := range types {
					tw.AppendRow(table.Row{t.Name, domain.FormatUrgency(t.Urgency), t.AutoAction})
				}
				tw.Render()
				return nil
			})
		},
	})
	al.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				return printJSONOrTable(s.Engine.ActiveAlerts())
			})
		},
	})
	return al
}

func todoCmd() *cobra.Command {
	td := &cobra.Command{Use: "todo", Short: "AI-generated todo list"}
	td.AddCommand(todoListCmd())
	td.AddCommand(todoRefreshCmd())
	td.AddCommand(todoDoneCmd())
	return td
}

func todoListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				todos := s.Engine.Todos.List()
				if viper.GetBool("json") {
					return printJSON(todos)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"#", "Done", "Risk", "Action", "Event"})
				for i, t := range todos {
					done := " "
					if t.Done {
						done = "x"
					}
					tw.AppendRow(table.Row{i, done, t.Risk, t.Action, t.Event})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func todoRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Regenerate the todo list from recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				todos, err := s.Engine.RefreshTodos(cmd.Context())
				if err != nil {
					return err
				}
				return printJSONOrTable(todos)
			})
		},
	}
}

func todoDoneCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <index>",
		Short: "Mark a todo done (or not, with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid todo index %q", args[0])
			}
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				t, err := s.Engine.SetTodoDone(index, !undo)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark as not done")
	return cmd
}

func analyzeCmd() *cobra.Command {
	an := &cobra.Command{Use: "analyze", Short: "AI analysis tools"}
	run := func(use, short string, op func(*engine.Engine, context.Context) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
					text, err := op(s.Engine, ctx)
					if err != nil {
						return err
					}
					fmt.Println(text)
					return nil
				})
			},
		}
	}
	an.AddCommand(run("insights", "Insight summary over recent events", (*engine.Engine).AnalyzeEvents))
	an.AddCommand(run("events", "Deep analysis of the most recent events", (*engine.Engine).AnalyzeRecentEvents))
	an.AddCommand(run("report", "Generate the executive facility report", (*engine.Engine).GenerateReport))
	an.AddCommand(run("maintenance", "Predict asset maintenance needs", (*engine.Engine).PredictMaintenance))
	return an
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show dashboard gauges and tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"gauges":   s.Engine.Gauges(),
						"assets":   engine.Assets(),
						"training": engine.Training(),
						"insights": engine.Insights(),
					})
				}
				for _, g := range s.Engine.Gauges() {
					fmt.Printf("%s: %v / %v %s\n", g.Title, g.Value, g.Max, g.Unit)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Asset", "Status", "Risk", "Trend"})
				for _, a := range engine.Assets() {
					tw.AppendRow(table.Row{a.Name, a.Status, a.Risk, a.Trend})
				}
				tw.Render()
				tw = table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Operator", "Training", "Expires"})
				for _, t := range engine.Training() {
					tw.AppendRow(table.Row{t.Name, t.Status, t.Expires})
				}
				tw.Render()
				fmt.Println("AI Insights:")
				for _, line := range engine.Insights() {
					fmt.Printf("  - %s\n", line)
				}
				return nil
			})
		},
	}
}

func benefitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "benefits",
		Short: "Legacy vs unified comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			benefits := engine.Benefits()
			if viper.GetBool("json") {
				return printJSON(benefits)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Feature", "Description", "Score"})
			for _, b := range benefits {
				tw.AppendRow(table.Row{b.Feature, b.Description, b.Score})
			}
			tw.Render()
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cc := &cobra.Command{Use: "config", Short: "Manage configuration"}
	cc.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				return printJSONOrTable(s.Config)
			})
		},
	})
	cc.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("data-dir"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cc.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("data-dir"))
			if err != nil {
				return err
			}
			fmt.Printf("config ok (facility %q)\n", cfg.Facility.Name)
			return nil
		},
	})
	return cc
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), func(ctx context.Context, s *app.Session) error {
				handler, err := server.New(server.Config{Session: s, BasePath: basePath})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-cmd.Context().Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Chem-E-Care API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8488", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
