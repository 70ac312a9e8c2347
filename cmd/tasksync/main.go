package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tasksync/tasksync/internal/config"
	"github.com/tasksync/tasksync/internal/domain"
	"github.com/tasksync/tasksync/internal/gh"
	"github.com/tasksync/tasksync/internal/mapping"
	"github.com/tasksync/tasksync/internal/reconcile"
	"github.com/tasksync/tasksync/internal/store"
	"github.com/tasksync/tasksync/internal/transform"
	"github.com/tasksync/tasksync/internal/tui"
)

var (
	// CLI flags
	repoFlag      string
	kindFlag      string
	configFlag    string
	dbFlag        string
	debugFlag     bool
	importAllFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tasksync",
		Short: "Sync GitHub issues and pull requests into local tasks",
		Long: `tasksync mirrors GitHub issues and pull requests into a local task
database, routing them to areas and projects via configured mappings.

Authentication:
  1. GitHub CLI: Run 'gh auth login' (preferred)
  2. Environment variable: Set GITHUB_TOKEN or GH_TOKEN`,
		RunE: runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository in owner/repo form. Overrides the configured default.")
	rootCmd.PersistentFlags().StringVar(&kindFlag, "kind", "issues", "Item kind: issues or pulls.")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file path (default ~/.config/tasksync/config.yaml).")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Task database path (default ~/.local/share/tasksync/tasks.db).")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging to stderr.")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh issues and pull requests non-interactively",
		RunE:  runSync,
	}
	syncCmd.Flags().BoolVar(&importAllFlag, "import-all", false, "Persist every fetched item to the task database.")

	orgsCmd := &cobra.Command{
		Use:   "orgs",
		Short: "List your organizations (candidates for mapping rules)",
		RunE:  runOrgs,
	}

	reposCmd := &cobra.Command{
		Use:   "repos <owner>",
		Short: "List an owner's repositories (candidates for mapping rules)",
		Args:  cobra.ExactArgs(1),
		RunE:  runRepos,
	}

	mappingsCmd := &cobra.Command{
		Use:   "mappings",
		Short: "Validate and show the configured mapping rules",
		RunE:  runMappings,
	}

	rootCmd.AddCommand(syncCmd, orgsCmd, reposCmd, mappingsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything the commands need.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	client     *gh.Client
	store      *store.Store
	reconciler *reconcile.Reconciler
	repository string
	kind       domain.ItemKind
}

func setup(needStore bool) (*app, error) {
	logger := zap.NewNop()
	if debugFlag {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	configPath := configFlag
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	client, err := gh.New(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w\n\nPlease authenticate using:\n  gh auth login\nor set the GITHUB_TOKEN environment variable", err)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		repository: repoFlag,
		kind:       domain.ItemKindIssue,
	}
	if a.repository == "" {
		a.repository = cfg.DefaultRepository
	}
	if kindFlag == "pulls" || kindFlag == "prs" {
		a.kind = domain.ItemKindPullRequest
	}

	if needStore {
		dbPath := dbFlag
		if dbPath == "" {
			dbPath = cfg.Database
		}
		if dbPath == "" {
			if dbPath, err = store.DefaultPath(); err != nil {
				return nil, err
			}
		}
		if a.store, err = store.Open(dbPath); err != nil {
			return nil, err
		}

		mapper := mapping.New(cfg.Mappings)
		transformer := transform.New(mapper, cfg.Statuses, cfg.Categories)
		a.reconciler = reconcile.New(client, a.store, transformer, logger)
	}
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	a.logger.Sync()
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.close()

	if a.repository == "" {
		return fmt.Errorf("no repository selected: pass --repo or set default_repository in the config")
	}

	model := tui.NewAppModel(a.reconciler, context.Background(), a.repository, a.kind)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// runSync refreshes issues and pull requests together and prints a
// summary. With --import-all every merged task is persisted.
func runSync(cmd *cobra.Command, args []string) error {
	a, err := setup(true)
	if err != nil {
		return err
	}
	defer a.close()

	if a.repository == "" {
		return fmt.Errorf("no repository selected: pass --repo or set default_repository in the config")
	}

	ctx := context.Background()
	results := make(map[domain.ItemKind][]domain.Task, 2)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range []domain.ItemKind{domain.ItemKindIssue, domain.ItemKindPullRequest} {
		kind := kind
		g.Go(func() error {
			tasks, err := a.reconciler.Refresh(gctx, a.repository, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			results[kind] = tasks
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, kind := range []domain.ItemKind{domain.ItemKindIssue, domain.ItemKindPullRequest} {
		tasks := results[kind]
		fmt.Printf("%s: %d %s\n", a.repository, len(tasks), kind)
		if !importAllFlag {
			continue
		}
		for _, task := range tasks {
			if _, err := a.reconciler.Import(task); err != nil {
				return err
			}
		}
		fmt.Printf("imported %d %s\n", len(tasks), kind)
	}
	return nil
}

func runOrgs(cmd *cobra.Command, args []string) error {
	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.close()

	owners, err := a.client.GetViewerAndOrgs(context.Background())
	if err != nil {
		return err
	}
	for _, owner := range owners {
		fmt.Printf("%-12s %s\n", owner.Type, owner.Login)
	}
	return nil
}

func runRepos(cmd *cobra.Command, args []string) error {
	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.close()

	repos, err := a.client.ListRepositories(context.Background(), args[0])
	if err != nil {
		return err
	}
	for _, repo := range repos {
		fmt.Println(repo)
	}
	return nil
}

// runMappings validates the configured rules and shows how each one
// matches. Validation reports every violation, not just the first.
func runMappings(cmd *cobra.Command, args []string) error {
	a, err := setup(false)
	if err != nil {
		return err
	}
	defer a.close()

	if errs := a.cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "invalid: %v\n", e)
		}
		return fmt.Errorf("%d invalid mapping rule(s)", len(errs))
	}

	if len(a.cfg.Mappings) == 0 {
		fmt.Println("no mapping rules configured")
		return nil
	}
	for i, rule := range a.cfg.Mappings {
		source := rule.Repository
		if source == "" {
			source = rule.Organization + "/*"
		}
		fmt.Printf("%2d. %-30s -> area=%q project=%q priority=%d\n",
			i, source, rule.TargetArea, rule.TargetProject, rule.Priority)
	}
	return nil
}
