package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/config"
	"github.com/brettbedarf/simfs/journal"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newJournalCmd(cfg func() *config.Config) *cobra.Command {
	var (
		events []string
		tail   int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the operation journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(cfg().JournalPath())
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := journal.ReadAll(f)
			if err != nil {
				return err
			}
			entries = filterEntries(entries, events, tail)

			r := lipgloss.NewRenderer(cmd.OutOrStdout())
			for _, e := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), eventStyle(r, e.Event).Render(journal.Format(e)))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&events, "event", "e", nil, "Only show these events, e.g. START,COMMIT")
	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "Only show the last n entries")
	return cmd
}

func filterEntries(entries []journal.Entry, events []string, tail int) []journal.Entry {
	if len(events) > 0 {
		filtered := entries[:0:0]
		for _, e := range entries {
			for _, want := range events {
				if strings.EqualFold(string(e.Event), want) {
					filtered = append(filtered, e)
					break
				}
			}
		}
		entries = filtered
	}
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	return entries
}

func eventStyle(r *lipgloss.Renderer, event simfs.JournalEvent) lipgloss.Style {
	s := r.NewStyle()
	switch event {
	case simfs.EventCriticalError:
		return s.Foreground(lipgloss.Color("196")).Bold(true)
	case simfs.EventCommit:
		return s.Foreground(lipgloss.Color("42"))
	case simfs.EventBoot, simfs.EventShutdown:
		return s.Foreground(lipgloss.Color("39"))
	}
	return s
}
