package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/repo"
)

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Post projects and drive engagements"}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectEditCmd())
	prj.AddCommand(projectAcceptBidCmd())
	prj.AddCommand(projectTransitionCmd("complete", "Submit work for review (assigned freelancer)", engine.Engine.CompleteWork))
	prj.AddCommand(projectTransitionCmd("request-revision", "Send submitted work back (client)", engine.Engine.RequestRevision))
	prj.AddCommand(projectTransitionCmd("accept", "Accept submitted work and close the engagement (client)", engine.Engine.AcceptCompletedWork))
	return prj
}

func projectCreateCmd() *cobra.Command {
	var opts engine.ProjectCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a project as the acting client",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.CreateProject(ctx, actor, opts)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "project id (generated when empty)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().Float64Var(&opts.Budget, "budget", 0, "budget")
	cmd.Flags().StringSliceVar(&opts.RequiredSkills, "skill", nil, "required skill (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("budget")
	return cmd
}

func projectListCmd() *cobra.Command {
	var f repo.ProjectFilters
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Status = domain.Status(status)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListProjects(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Budget", "Client", "Freelancer", "Skills"})
				for _, p := range items {
					tw.AppendRow(table.Row{p.ID, p.Title, p.Status, p.Budget, p.ClientID, strOrDash(p.AssignedFreelancerID), strings.Join(p.RequiredSkills, ",")})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Skill, "skill", "", "required skill filter")
	cmd.Flags().StringVar(&f.ClientID, "client", "", "client filter")
	cmd.Flags().StringVar(&f.FreelancerID, "freelancer-id", "", "assigned freelancer filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 50, "maximum rows")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project with its bids and reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, _ := currentActor()
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.GetProject(ctx, args[0], viewer)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
}

func projectEditCmd() *cobra.Command {
	var (
		title, description string
		budget             float64
		skills             []string
	)
	cmd := &cobra.Command{
		Use:   "edit <project-id>",
		Short: "Edit an open project's details (owner)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			var opts engine.ProjectUpdateOptions
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("budget") {
				opts.Budget = &budget
			}
			if cmd.Flags().Changed("skill") {
				opts.RequiredSkills = &skills
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.UpdateProject(ctx, actor, args[0], opts)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().Float64Var(&budget, "budget", 0, "new budget")
	cmd.Flags().StringSliceVar(&skills, "skill", nil, "required skill (repeatable, replaces the list)")
	return cmd
}

func projectAcceptBidCmd() *cobra.Command {
	var bidID string
	cmd := &cobra.Command{
		Use:   "accept-bid <project-id>",
		Short: "Accept a bid and start the engagement (client)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := e.AcceptBid(ctx, actor, args[0], bidID)
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
	cmd.Flags().StringVar(&bidID, "bid", "", "bid id")
	_ = cmd.MarkFlagRequired("bid")
	return cmd
}

type transitionFunc func(engine.Engine, context.Context, auth.Actor, string) (engine.ProjectView, error)

func projectTransitionCmd(use, short string, run transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <project-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				v, err := run(e, ctx, actor, args[0])
				if err != nil {
					return err
				}
				return printView(v)
			})
		},
	}
}

func bidCmd() *cobra.Command {
	b := &cobra.Command{Use: "bid", Short: "Submit and list bids"}
	b.AddCommand(bidSubmitCmd())
	b.AddCommand(bidListCmd())
	return b
}

func bidSubmitCmd() *cobra.Command {
	var opts engine.BidOptions
	var days int
	cmd := &cobra.Command{
		Use:   "submit <project-id>",
		Short: "Bid on an open project as the acting freelancer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			opts.TimelineDays = optionalInt(cmd, "days", days)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				bid, err := e.SubmitBid(ctx, actor, args[0], opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(bid)
				}
				fmt.Printf("Bid %s submitted on %s for %.2f\n", bid.ID, bid.ProjectID, bid.Amount)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&opts.Amount, "amount", 0, "bid amount")
	cmd.Flags().StringVar(&opts.Proposal, "proposal", "", "proposal text")
	cmd.Flags().IntVar(&days, "days", 0, "estimated timeline in days")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func bidListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's bids in submission order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				bids, err := e.ListBids(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(bids)
				}
				printBids(bids)
				return nil
			})
		},
	}
}

func rankCmd() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "rank <project-id>",
		Short: "Rank a project's bids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				res, err := e.RankBids(ctx, args[0], domain.Priority(priority))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Printf("Priority %s (price %.2f, time %.2f, reputation %.2f)\n",
					res.Priority, res.Weights.Price, res.Weights.Time, res.Weights.Reputation)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Rank", "Bid", "Freelancer", "Amount", "Days", "Score", "Price", "Time", "Reputation", "Skills"})
				for _, rb := range res.Bids {
					days := "-"
					if rb.TimelineDays != nil {
						days = fmt.Sprintf("%d", *rb.TimelineDays)
					}
					tw.AppendRow(table.Row{rb.Rank, rb.BidID, rb.FreelancerName, rb.Amount, days, rb.Score, rb.PriceScore, rb.TimeScore, rb.ReputationScore, rb.SkillMatch})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityBalanced), "balanced, price, time or ratings")
	return cmd
}

func reviewCmd() *cobra.Command {
	r := &cobra.Command{Use: "review", Short: "Review the counterpart of a completed project"}
	var opts engine.ReviewOptions
	post := &cobra.Command{
		Use:   "post <project-id>",
		Short: "Post a review as the acting user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				rv, err := e.PostReview(ctx, actor, args[0], opts)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rv)
				}
				fmt.Printf("Rated %s %d/5 on %s\n", rv.RevieweeID, rv.Rating, rv.ProjectID)
				return nil
			})
		},
	}
	post.Flags().IntVar(&opts.Rating, "rating", 0, "rating 1-5")
	post.Flags().StringVar(&opts.Comment, "comment", "", "comment")
	_ = post.MarkFlagRequired("rating")
	r.AddCommand(post)
	r.AddCommand(&cobra.Command{
		Use:   "can <project-id>",
		Short: "Whether the acting user may still review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := currentActor()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ok, err := e.CanReview(ctx, args[0], actor.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]bool{"can_review": ok})
				}
				fmt.Println(ok)
				return nil
			})
		},
	})
	return r
}

func logCmd() *cobra.Command {
	var n int
	var before int64
	cmd := &cobra.Command{
		Use:   "log <project-id>",
		Short: "Show a project's audit log, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evts, err := e.ProjectEvents(ctx, args[0], n, before)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Time", "Type", "Entity", "Actor", "Payload"})
				for _, evt := range evts {
					tw.AppendRow(table.Row{evt.ID, evt.TS, evt.Type, evt.EntityKind + ":" + evt.EntityID, evt.ActorID, evt.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of events")
	cmd.Flags().Int64Var(&before, "before", 0, "only events older than this id")
	return cmd
}

func printView(v engine.ProjectView) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	p := v.Project
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Title", p.Title},
		{"Status", p.Status},
		{"Budget", p.Budget},
		{"Client", p.ClientID},
		{"Freelancer", strOrDash(p.AssignedFreelancerID)},
		{"Accepted bid", strOrDash(p.AcceptedBidID)},
		{"Skills", strings.Join(p.RequiredSkills, ",")},
		{"Version", p.Version},
	})
	if v.ViewerRole != "" {
		actions := make([]string, 0, len(v.AvailableActions))
		for _, a := range v.AvailableActions {
			actions = append(actions, string(a))
		}
		tw.AppendRow(table.Row{"Your role", v.ViewerRole})
		tw.AppendRow(table.Row{"Next actions", strings.Join(actions, ", ")})
		tw.AppendRow(table.Row{"Can review", v.CanReview})
	}
	tw.Render()
	if len(v.Bids) > 0 {
		printBids(v.Bids)
	}
	if len(v.Reviews) > 0 {
		rt := table.NewWriter()
		rt.SetOutputMirror(os.Stdout)
		rt.AppendHeader(table.Row{"Reviewer", "Reviewee", "Rating", "Comment"})
		for _, r := range v.Reviews {
			rt.AppendRow(table.Row{r.ReviewerID, r.RevieweeID, r.Rating, r.Comment})
		}
		rt.Render()
	}
	return nil
}

func printBids(bids []domain.Bid) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Bid", "Freelancer", "Amount", "Days", "Submitted", "Proposal"})
	for _, b := range bids {
		days := "-"
		if b.TimelineDays != nil {
			days = fmt.Sprintf("%d", *b.TimelineDays)
		}
		tw.AppendRow(table.Row{b.ID, b.FreelancerID, b.Amount, days, b.SubmittedAt, b.Proposal})
	}
	tw.Render()
}
