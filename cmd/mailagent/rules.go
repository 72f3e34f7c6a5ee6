package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/mail-agent/internal/logger"
	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/rules"
)

func rulesCmd(configPath *string) *cobra.Command {
	var (
		subject  string
		sender   string
		body     string
		category string
		priority int
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show which configured rules would fire for an email, without acting",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			email := model.EmailMessage{
				UID:     "dry-run",
				Subject: subject,
				Sender:  sender,
				Body:    body,
			}
			analysis := model.DefaultAnalysis()
			analysis.Category = model.ParseCategory(category)
			analysis.Priority = model.ClampPriority(priority)

			ruleSet := rules.Compile(cfg.Rules, log)
			matched := rules.SelectMatching(email, analysis, ruleSet)

			rows := make([][]string, 0, len(matched))
			for i, r := range matched {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					r.Name,
					describeActions(r.Actions),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d of %d rules match (category=%s, priority=%d)\n",
				len(matched), len(ruleSet), analysis.Category, analysis.Priority)
			renderTable(out, "Matching rules", []string{"#", "Rule", "Actions"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "email subject")
	cmd.Flags().StringVar(&sender, "sender", "", "sender address")
	cmd.Flags().StringVar(&body, "body", "", "email body")
	cmd.Flags().StringVar(&category, "category", string(model.CategoryOther), "analysis category")
	cmd.Flags().IntVar(&priority, "priority", model.PriorityDefault, "analysis priority (1-5)")
	return cmd
}
