package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"concord/internal/agreement"
	"concord/internal/app"
	"concord/internal/config"
	"concord/internal/db"
	"concord/internal/domain"
	"concord/internal/engine"
	"concord/internal/migrate"
	"concord/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "cc",
	Short: "Concord CLI",
	Long: `Concord detects and resolves disagreements between annotators.
Core concepts:
- Workspace: your .concord directory holding the database; configs are stored in the DB and imported explicitly.
- Project: owns texts, annotations, conflicts, and agreement history.
- Texts and annotations: annotators label half-open [start,end) spans with a label and a confidence.
- Conflicts: detected disagreements (span overlaps, label conflicts, quality disputes), banded by severity.
- Resolution: auto-merge, voting, weighted voting, or expert review; failed attempts can escalate.
- Agreement: Cohen/Fleiss kappa and Krippendorff alpha, stored so past reliability can weight future votes.
- Event log: diary of changes, view with 'cc log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONCORD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().Bool("force", false, "force operation")
	rootCmd.PersistentFlags().String("project", "", "project id (overrides config default)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("force", rootCmd.PersistentFlags().Lookup("force"))
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func registerCommands() {
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(textCmd())
	rootCmd.AddCommand(annotationCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(conflictCmd())
	rootCmd.AddCommand(voteCmd())
	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(agreementCmd())
	rootCmd.AddCommand(logCmd())
}

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectUseCmd())
	prj.AddCommand(projectConfigCmd())
	return prj
}

func projectListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListProjects(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	return cmd
}

func projectCreateCmd() *cobra.Command {
	var id, desc string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg := config.Default(id)
			e := engine.New(conn, cfg)
			p, err := e.InitProject(cmd.Context(), id, desc, viper.GetString("actor-id"))
			if err != nil {
				return err
			}
			return printJSONOrTable(p)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "project id")
	cmd.Flags().StringVar(&desc, "description", "", "description")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func projectShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := viper.GetString("project")
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if target == "" {
					target = e.Config.Project.ID
				}
				p, err := e.Repo.GetProject(ctx, target)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func projectUseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Set current project for this workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := strings.TrimSpace(args[0])
			if projectID == "" {
				return fmt.Errorf("project id is required")
			}
			workspace := viper.GetString("workspace")
			if err := setEnvValue(filepath.Join(workspace, ".env"), "CONCORD_PROJECT", projectID); err != nil {
				return err
			}
			fmt.Printf("Set CONCORD_PROJECT=%s in %s/.env\n", projectID, workspace)
			return nil
		},
	}
	return cmd
}

func projectConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage project config",
	}
	cfg.AddCommand(projectConfigShowCmd())
	cfg.AddCommand(projectConfigImportCmd())
	cfg.AddCommand(projectConfigExportCmd())
	return cfg
}

func projectConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show project config stored in DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return printJSONOrTable(e.Config)
			})
		},
	}
	return cmd
}

func projectConfigImportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import project config from YAML into the DB",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFile(filePath)
			if err != nil {
				return err
			}
			projectID := cfg.Project.ID
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if projectID == "" {
					projectID = e.Config.Project.ID
				}
				if err := e.Repo.UpsertProjectConfig(ctx, projectID, cfg); err != nil {
					return err
				}
				return printJSONOrTable(cfg)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to YAML config")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func projectConfigExportCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored project config as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				data, err := yaml.Marshal(e.Config)
				if err != nil {
					return err
				}
				if filePath == "" {
					fmt.Print(string(data))
					return nil
				}
				return os.WriteFile(filePath, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "output path (stdout if omitted)")
	return cmd
}

func textCmd() *cobra.Command {
	text := &cobra.Command{
		Use:   "text",
		Short: "Manage texts",
		Long:  "Texts are the documents annotators label. Spans are byte offsets into the text content.",
	}
	text.AddCommand(textAddCmd())
	text.AddCommand(textListCmd())
	return text
}

func textAddCmd() *cobra.Command {
	var id, content, filePath string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			if content == "" && filePath == "" {
				return fmt.Errorf("--content or --file required")
			}
			if content == "" {
				data, err := os.ReadFile(filePath)
				if err != nil {
					return err
				}
				content = string(data)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				t, err := e.AddText(ctx, e.Config.Project.ID, id, content, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "text id (optional)")
	cmd.Flags().StringVar(&content, "content", "", "text content")
	cmd.Flags().StringVar(&filePath, "file", "", "read content from file")
	return cmd
}

func textListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List texts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListTexts(ctx, e.Config.Project.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Length", "Created"})
				for _, t := range items {
					tw.AppendRow(table.Row{t.ID, len(t.Content), t.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func annotationCmd() *cobra.Command {
	ann := &cobra.Command{
		Use:   "annotation",
		Short: "Manage annotations",
	}
	ann.AddCommand(annotationAddCmd())
	ann.AddCommand(annotationListCmd())
	return ann
}

func annotationAddCmd() *cobra.Command {
	var opts engine.AnnotationCreateOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an annotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			if opts.AnnotatorID == "" {
				opts.AnnotatorID = opts.ActorID
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if opts.ProjectID == "" {
					opts.ProjectID = e.Config.Project.ID
				}
				a, err := e.AddAnnotation(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(a)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "annotation id (optional)")
	cmd.Flags().StringVar(&opts.TextID, "text", "", "text id")
	cmd.Flags().StringVar(&opts.AnnotatorID, "annotator", "", "annotator id (defaults to actor)")
	cmd.Flags().StringVar(&opts.LabelID, "label", "", "label id")
	cmd.Flags().IntVar(&opts.Start, "start", 0, "span start (inclusive)")
	cmd.Flags().IntVar(&opts.End, "end", 0, "span end (exclusive)")
	cmd.Flags().Float64Var(&opts.Confidence, "confidence", 1.0, "annotator confidence in [0,1]")
	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("label")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func annotationListCmd() *cobra.Command {
	var f repo.AnnotationFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if f.ProjectID == "" {
					f.ProjectID = e.Config.Project.ID
				}
				items, err := e.Repo.ListAnnotations(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Text", "Annotator", "Label", "Span", "Confidence"})
				for _, a := range items {
					tw.AppendRow(table.Row{a.ID, a.TextID, a.AnnotatorID, a.LabelID, fmt.Sprintf("[%d,%d)", a.Start, a.End), fmt.Sprintf("%.2f", a.Confidence)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&f.TextID, "text", "", "text filter")
	cmd.Flags().StringVar(&f.AnnotatorID, "annotator", "", "annotator filter")
	cmd.Flags().StringVar(&f.LabelID, "label", "", "label filter")
	return cmd
}

func detectCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect conflicts in the project's annotations",
		Long:  "Scans annotations pairwise per text and persists new conflicts. Safe to re-run: open conflicts are not duplicated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				created, err := e.DetectConflicts(ctx, e.Config.Project.ID, viper.GetString("actor-id"), workers)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(created)
				}
				if len(created) == 0 {
					fmt.Println("no new conflicts")
					return nil
				}
				printConflictTable(created)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 1, "parallel detection workers")
	return cmd
}

func conflictCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "conflict",
		Short: "Manage conflicts",
		Long:  "Conflicts flow detected -> assigned -> (voting | expert_review) -> resolved/dismissed/archived.",
	}
	c.AddCommand(conflictListCmd())
	c.AddCommand(conflictShowCmd())
	c.AddCommand(conflictAssignCmd())
	c.AddCommand(conflictEscalateCmd())
	c.AddCommand(conflictDismissCmd())
	c.AddCommand(conflictArchiveCmd())
	return c
}

func conflictListCmd() *cobra.Command {
	var f repo.ConflictFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conflicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if f.ProjectID == "" {
					f.ProjectID = e.Config.Project.ID
				}
				items, err := e.Repo.ListConflicts(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printConflictTable(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&f.TextID, "text", "", "text filter")
	cmd.Flags().StringVar(&f.Kind, "kind", "", "kind filter")
	cmd.Flags().StringVar(&f.Severity, "severity", "", "severity filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	return cmd
}

func conflictShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a conflict with its votes and resolution trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.Repo.GetConflict(ctx, id)
				if err != nil {
					return err
				}
				votes, err := e.Repo.ListVotes(ctx, id)
				if err != nil {
					return err
				}
				resolutions, err := e.Repo.ListResolutions(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{
					"conflict":    c,
					"votes":       votes,
					"resolutions": resolutions,
				})
			})
		},
	}
	return cmd
}

func conflictAssignCmd() *cobra.Command {
	var resolver string
	cmd := &cobra.Command{
		Use:   "assign <id>",
		Short: "Assign a resolver to a conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.AssignResolver(ctx, id, resolver, viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&resolver, "resolver", "", "resolver id")
	_ = cmd.MarkFlagRequired("resolver")
	return cmd
}

func conflictEscalateCmd() *cobra.Command {
	var resolver string
	cmd := &cobra.Command{
		Use:   "escalate <id>",
		Short: "Escalate a conflict to expert review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.EscalateConflict(ctx, id, resolver, viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&resolver, "resolver", "", "expert resolver id")
	_ = cmd.MarkFlagRequired("resolver")
	return cmd
}

func conflictDismissCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a conflict without an outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.DismissConflict(ctx, id, reason, viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "dismissal reason")
	return cmd
}

func conflictArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a closed conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.ArchiveConflict(ctx, id, viper.GetString("actor-id"), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	return cmd
}

func voteCmd() *cobra.Command {
	v := &cobra.Command{
		Use:   "vote",
		Short: "Vote on conflicts",
	}
	v.AddCommand(voteCastCmd())
	v.AddCommand(voteListCmd())
	return v
}

func voteCastCmd() *cobra.Command {
	var opts engine.VoteOptions
	var choice string
	var confidence float64
	cmd := &cobra.Command{
		Use:   "cast <conflict-id>",
		Short: "Cast or change a vote",
		Long:  "Choices: annotation_a, annotation_b, merge, reject_both, escalate. One vote per voter; casting again overwrites.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConflictID = args[0]
			opts.ActorID = viper.GetString("actor-id")
			opts.Force = viper.GetBool("force")
			if opts.VoterID == "" {
				opts.VoterID = opts.ActorID
			}
			opts.Choice = domain.VoteChoice(choice)
			if cmd.Flags().Changed("confidence") {
				opts.Confidence = &confidence
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.SubmitVote(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(v)
			})
		},
	}
	cmd.Flags().StringVar(&opts.VoterID, "voter", "", "voter id (defaults to actor)")
	cmd.Flags().StringVar(&choice, "choice", "", "vote choice")
	cmd.Flags().Float64Var(&opts.Weight, "weight", 1.0, "base vote weight")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "voter confidence in [0,1]")
	cmd.Flags().StringVar(&opts.Rationale, "rationale", "", "rationale")
	_ = cmd.MarkFlagRequired("choice")
	return cmd
}

func voteListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <conflict-id>",
		Short: "List votes on a conflict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				votes, err := e.Repo.ListVotes(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(votes)
			})
		},
	}
	return cmd
}

func resolveCmd() *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "resolve <conflict-id>",
		Short: "Run one resolution attempt",
		Long:  "Strategies: auto_merge, voting, weighted_voting, expert_review. Omit --strategy to let the engine pick.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				result, err := e.ResolveConflict(ctx, engine.ResolveOptions{
					ConflictID: id,
					Strategy:   strategy,
					ActorID:    viper.GetString("actor-id"),
					Force:      viper.GetBool("force"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(result)
			})
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "resolution strategy (optional)")
	return cmd
}

func agreementCmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "agreement",
		Short: "Compute inter-annotator agreement",
	}
	a.AddCommand(agreementPairCmd())
	a.AddCommand(agreementProjectCmd())
	a.AddCommand(agreementHistoryCmd())
	return a
}

func agreementPairCmd() *cobra.Command {
	var annotatorA, annotatorB, weighting string
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Cohen's kappa between two annotators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				result, err := e.PairAgreement(ctx, engine.PairAgreementOptions{
					ProjectID:  e.Config.Project.ID,
					AnnotatorA: annotatorA,
					AnnotatorB: annotatorB,
					Weighting:  agreement.Weighting(weighting),
					ActorID:    viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(result)
			})
		},
	}
	cmd.Flags().StringVar(&annotatorA, "annotator-a", "", "first annotator")
	cmd.Flags().StringVar(&annotatorB, "annotator-b", "", "second annotator")
	cmd.Flags().StringVar(&weighting, "weighting", "none", "kappa weighting (none, linear, quadratic)")
	_ = cmd.MarkFlagRequired("annotator-a")
	_ = cmd.MarkFlagRequired("annotator-b")
	return cmd
}

func agreementProjectCmd() *cobra.Command {
	var method, metric string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project-wide agreement across all annotators",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				result, err := e.ProjectAgreement(ctx, engine.ProjectAgreementOptions{
					ProjectID: e.Config.Project.ID,
					Method:    method,
					Metric:    agreement.Metric(metric),
					ActorID:   viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(result)
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", agreement.MethodFleiss, "fleiss_kappa or krippendorff_alpha")
	cmd.Flags().StringVar(&metric, "metric", "", "alpha distance metric (nominal, ordinal, interval, ratio)")
	return cmd
}

func agreementHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored agreement records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.ListAgreementRecords(ctx, e.Config.Project.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Method", "Annotators", "Coefficient", "Items", "Computed"})
				for _, rec := range items {
					pair := rec.AnnotatorA
					if rec.AnnotatorB != "" {
						pair += " / " + rec.AnnotatorB
					}
					tw.AppendRow(table.Row{rec.Method, pair, fmt.Sprintf("%.4f", rec.Coefficient), rec.NItems, rec.ComputedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Repo.LatestEvents(ctx, n, e.Config.Project.ID, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	_, cfg, err := app.ResolveProjectAndConfig(ctx, workspace, viper.GetString("project"), r)
	if err != nil {
		return err
	}
	e := engine.New(conn, cfg)
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	r := repo.Repo{DB: conn}
	return fn(ctx, r)
}

func printConflictTable(items []domain.Conflict) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Kind", "Severity", "Score", "Status", "Text"})
	for _, c := range items {
		tw.AppendRow(table.Row{c.ID, c.Kind, c.Severity, fmt.Sprintf("%.3f", c.Score), c.Status, c.TextID})
	}
	tw.Render()
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

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
