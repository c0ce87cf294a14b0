// Command pathway is the CLI for the swim-recruiting assistant.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pathway"
	"github.com/hupe1980/pathway/config"
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/router"
	"github.com/hupe1980/pathway/store"
)

var (
	// Global flags
	configPath string
	athlete    string
	timeout    time.Duration
	verbose    bool

	// ask flags
	askContext map[string]string
	askFull    bool

	// task flags
	taskTitle    string
	taskDomain   string
	taskPriority string
	taskDue      string
	taskNotes    string
	taskStatus   string

	// schedule flags
	scheduleOnce bool

	// newApp builds the App; tests replace it.
	newApp = func(cfg *config.Config) (*pathway.App, error) { return pathway.New(cfg) }
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pathway",
	Short: "pathway - D1 swim recruiting assistant",
	Long: `pathway routes questions about nutrition, meets, times, travel and
recruiting to specialised agents and merges their answers.

Configuration is read from --config (YAML) with PATHWAY_* environment
overrides.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Route a question to the agents and print the merged answer",
	Example: `  pathway ask "What should Michael eat before the meet?" --context meet_date=2026-03-12
  pathway ask "How far off the 100 free cut am I?" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var scoreCmd = &cobra.Command{
	Use:   "score [owner/name]",
	Short: "Fetch and score a GitHub repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the task table",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run scheduled jobs",
	RunE:  runServe,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the configured scheduled jobs",
	Long: `Runs the jobs from the schedule section of the config on their cron
specs until interrupted. With --once every job runs immediately, one time.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pathway.yaml", "Config file (optional)")
	rootCmd.PersistentFlags().StringVarP(&athlete, "athlete", "a", "", "Athlete name (default: athlete.name from config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	askCmd.Flags().StringToStringVar(&askContext, "context", nil, "Structured context, e.g. weight_kg=70,meet_date=2026-03-12")
	askCmd.Flags().BoolVar(&askFull, "json", false, "Print the full state as JSON")

	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&taskDomain, "domain", "", "Task domain (required): "+strings.Join(store.TaskDomains, ", "))
	taskAddCmd.Flags().StringVar(&taskPriority, "priority", "", "Priority: "+strings.Join(store.TaskPriorities, ", "))
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringVar(&taskNotes, "notes", "", "Notes")
	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status")

	scheduleCmd.Flags().BoolVar(&scheduleOnce, "once", false, "Run every job once and exit")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps validation failures to 2 and everything else to 1.
func exitCode(err error) int {
	if core.IsValidation(err) {
		return 2
	}
	return 1
}

func loadApp() (*pathway.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return newApp(cfg)
}

// signalContext is cancelled on SIGINT/SIGTERM and after d when d > 0.
func signalContext(d time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if d <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	return ctx, func() { cancel(); stop() }
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext(timeout)
	defer cancel()

	req := router.Request{Query: strings.Join(args, " "), Athlete: athlete}
	if len(askContext) > 0 {
		req.Context = make(map[string]any, len(askContext))
		for k, v := range askContext {
			req.Context[k] = v
		}
	}

	st, err := app.Route(ctx, req)
	if st == nil {
		return err
	}
	out := cmd.OutOrStdout()
	if askFull {
		if encErr := printJSON(out, st); encErr != nil {
			return encErr
		}
		return err
	}
	fmt.Fprint(out, router.Summarize(st).Text())
	return err
}

func runScore(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext(timeout)
	defer cancel()

	res, err := app.Score(ctx, args[0])
	if err != nil {
		return err
	}
	r := res.Result
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/100 %s (risk %s)\n", r.Repo, r.Total, r.Recommendation, r.Risk)
	fmt.Fprintf(cmd.OutOrStdout(), "  stars %d, recency %d, readme %d, license %d, relevance %d\n",
		r.Breakdown.Stars, r.Breakdown.Recency, r.Breakdown.Readme, r.Breakdown.License, r.Breakdown.Relevance)
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	rec := store.Record{}
	for k, v := range map[string]string{
		"title":    taskTitle,
		"domain":   taskDomain,
		"priority": taskPriority,
		"due_date": taskDue,
		"notes":    taskNotes,
		"athlete":  athlete,
	} {
		if v != "" {
			rec[k] = v
		}
	}

	ctx, cancel := signalContext(timeout)
	defer cancel()

	saved, err := app.AddTask(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added task %s [%s/%s] %s\n",
		saved.String("id"), saved.String("domain"), saved.String("priority"), saved.String("title"))
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	f := store.Filter{OrderBy: "created_at", Desc: true}
	if taskStatus != "" {
		f = f.And("status", taskStatus)
	}
	if athlete != "" {
		f = f.And("athlete", athlete)
	}

	ctx, cancel := signalContext(timeout)
	defer cancel()

	tasks, err := app.Tasks(ctx, f)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-6s %-10s %s\n",
			t.String("status"), t.String("priority"), t.String("domain"), t.String("title"))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.Config()
	log := app.Logger()

	ctx, cancel := signalContext(0)
	defer cancel()

	sched, err := app.Scheduler()
	if err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      app.Server().Router(),
		ReadTimeout:  cfg.HTTPReadTimeout(),
		WriteTimeout: cfg.HTTPWriteTimeout() + 5*time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := app.Scheduler()
	if err != nil {
		return err
	}
	if len(sched.Jobs()) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scheduled jobs configured.")
		return nil
	}

	if scheduleOnce {
		ctx, cancel := signalContext(timeout)
		defer cancel()
		runs, err := sched.RunAll(ctx)
		for _, run := range runs {
			status := "ok"
			if run.Err != nil {
				status = "error: " + run.Err.Error()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (%s)\n%s\n", run.Job, status, run.Duration.Round(time.Millisecond), run.Summary.PrimaryResponse)
		}
		return err
	}

	ctx, cancel := signalContext(0)
	defer cancel()
	sched.Start(ctx)
	for _, j := range sched.Jobs() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: next run %s\n", j.Name, sched.Next(j.Name).Format(time.RFC3339))
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
