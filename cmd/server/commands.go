package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"civicadmin/config"
	"civicadmin/internal/aggregate"
	"civicadmin/internal/auth"
	"civicadmin/internal/domain"
	"civicadmin/internal/logging"
	"civicadmin/internal/models"
	"civicadmin/internal/service"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	statusStyle = map[string]lipgloss.Style{
		domain.StatusReported:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		domain.StatusResolved:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// cliApp loads config and builds a Dashboard for one-shot commands.
func cliApp() (*app, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Server.Env, verbose)
	if err != nil {
		return nil, nil, err
	}
	a, err := buildApp(cfg, log, nil)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func reportsCmd() *cobra.Command {
	var status, category string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Fetch, aggregate and print reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status != domain.StatusAll && !domain.IsValidStatus(status) {
				return fmt.Errorf("invalid status %q", status)
			}
			a, log, err := cliApp()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			rows, snap, err := a.dashboard.Reports(cmd.Context(), service.Query{Status: status, Category: category})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderReports(rows))
			fmt.Fprintln(cmd.OutOrStdout(), renderCounts(aggregate.CountByStatus(snap.Rows)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", domain.StatusAll, "filter by status (all, reported, in_progress, resolved)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category")
	return cmd
}

func setStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <report-id> <status>",
		Short: "Change a report's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := cliApp()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer a.Close()

			actor := service.Actor{ID: "cli", UserAgent: "civicadmin-cli"}
			if u := os.Getenv("USER"); u != "" {
				actor.ID = "cli:" + u
			}
			row, err := a.dashboard.UpdateStatus(cmd.Context(), actor, args[0], args[1])
			if errors.Is(err, domain.ErrReportNotFound) {
				return fmt.Errorf("no report with id %s", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", row.ID, row.Title, domain.StatusLabel(row.Status))
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var email string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an admin access token for local development",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jwtCfg, err := config.LoadJWT()
			if err != nil {
				return err
			}
			if jwtCfg.AccessSecret == "" {
				return errors.New("JWT_SECRET is required")
			}
			if ttl > 0 {
				jwtCfg.AccessExpiry = ttl
			}
			tok, err := auth.GenerateAccessToken(jwtCfg, args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to the configured access expiry)")
	return cmd
}

func renderReports(rows []models.ReportWithVotes) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "CATEGORY", "STATUS", "UP", "DOWN", "REPORTER", "CREATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(rows) {
				if s, ok := statusStyle[rows[row].Status]; ok {
					return s.Padding(0, 1)
				}
			}
			return cellStyle
		})
	for _, r := range rows {
		reporter := r.ReporterName
		if reporter == "" {
			reporter = "-"
		}
		t.Row(
			shortID(r.ID),
			r.Title,
			r.Category,
			domain.StatusLabel(r.Status),
			strconv.Itoa(r.Upvotes),
			strconv.Itoa(r.Downvotes),
			reporter,
			r.CreatedAt.Format("2006-01-02"),
		)
	}
	return t.String()
}

func renderCounts(c aggregate.Counts) string {
	return fmt.Sprintf("total %d · reported %d · in progress %d · resolved %d",
		c.Total, c.Reported, c.InProgress, c.Resolved)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
