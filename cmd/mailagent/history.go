package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/theme"
)

func historyCmd(configPath *string) *cobra.Command {
	var (
		limit int
		ack   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recently processed emails and unread notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			if s == nil {
				return errors.New("history is disabled: store.path is empty")
			}
			defer s.Close()

			ctx := cmd.Context()
			records, err := s.RecentProcessed(ctx, limit)
			if err != nil {
				return err
			}
			notes, err := s.GetUnreadNotifications(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderTable(out, "Processed emails",
				[]string{"When", "Sender", "Subject", "Category", "Pri", "Rules", "Replied", "Read"},
				processedRows(records),
				func(row, col int) lipgloss.Style {
					if row < 0 || row >= len(records) {
						return theme.CellStyle
					}
					rec := records[row]
					switch col {
					case 3:
						return theme.CategoryStyle(rec.Category)
					case 4:
						return theme.PriorityStyle(rec.Priority)
					case 6:
						return theme.FlagStyle(rec.Replied)
					case 7:
						return theme.FlagStyle(rec.MarkedRead)
					}
					return theme.CellStyle
				},
			)
			fmt.Fprintln(out)
			renderTable(out, "Unread notifications",
				[]string{"When", "Rule", "Priority", "Message"},
				notificationRows(notes),
				nil,
			)

			if ack {
				for _, n := range notes {
					if err := s.MarkNotificationRead(ctx, n.ID); err != nil {
						return err
					}
				}
				fmt.Fprintf(out, "marked %d notifications read\n", len(notes))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of processed emails to show")
	cmd.Flags().BoolVar(&ack, "ack", false, "mark the listed notifications as read")
	return cmd
}

func processedRows(records []model.ProcessedRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			humanize.Time(rec.ProcessedAt),
			rec.Sender,
			truncate(rec.Subject, 48),
			string(rec.Category),
			strconv.Itoa(rec.Priority),
			strings.Join(rec.MatchedRules, ", "),
			yesNo(rec.Replied),
			yesNo(rec.MarkedRead),
		})
	}
	return rows
}

func notificationRows(notes []model.Notification) [][]string {
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, []string{
			humanize.Time(n.CreatedAt),
			n.Rule,
			n.Priority,
			truncate(n.Message, 64),
		})
	}
	return rows
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
