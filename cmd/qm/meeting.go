package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/quorum/internal/config"
	"github.com/zulandar/quorum/internal/db"
	"github.com/zulandar/quorum/internal/meeting"
)

// timeLayout is how meeting times are rendered in CLI output.
const timeLayout = "2006-01-02 15:04"

func newMeetingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meeting",
		Aliases: []string{"m"},
		Short:   "Inspect and manage meetings from the command line",
	}

	cmd.AddCommand(newMeetingListCmd())
	cmd.AddCommand(newMeetingShowCmd())
	cmd.AddCommand(newMeetingDeleteCmd())
	return cmd
}

// managerFromConfig opens the store and builds a lifecycle manager without a
// calendar gateway. Operator commands work on the local store only; remote
// mirrors are left untouched.
func managerFromConfig(configPath string) (*meeting.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	return meeting.NewManager(meeting.ManagerOpts{DB: gormDB})
}

func newMeetingListCmd() *cobra.Command {
	var (
		configPath string
		creator    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming meetings",
		Long:  "Lists upcoming meetings. With --creator, lists every meeting by that user, past ones included.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingList(cmd, configPath, creator)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quorum.yaml", "path to Quorum config file")
	cmd.Flags().StringVar(&creator, "creator", "", "only meetings created by this user id")
	return cmd
}

func runMeetingList(cmd *cobra.Command, configPath string, creator string) error {
	out := cmd.OutOrStdout()

	mgr, err := managerFromConfig(configPath)
	if err != nil {
		return err
	}

	var meetings []meetingRow
	switch {
	case creator != "":
		ms, err := mgr.ListByCreator(creator)
		if err != nil {
			return err
		}
		for _, m := range ms {
			meetings = append(meetings, meetingRow{m.ID, m.Title, m.StartTime.Format(timeLayout), m.CreatorUsername})
		}
	default:
		ms, err := mgr.ListUpcoming()
		if err != nil {
			return err
		}
		for _, m := range ms {
			meetings = append(meetings, meetingRow{m.ID, m.Title, m.StartTime.Format(timeLayout), m.CreatorUsername})
		}
	}

	if len(meetings) == 0 {
		fmt.Fprintln(out, "No meetings found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTART\tCREATOR")
	for _, m := range meetings {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.id, m.title, m.start, m.creator)
	}
	return w.Flush()
}

type meetingRow struct {
	id      uint
	title   string
	start   string
	creator string
}

func newMeetingShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a meeting and its registration roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quorum.yaml", "path to Quorum config file")
	return cmd
}

func runMeetingShow(cmd *cobra.Command, configPath, idArg string) error {
	out := cmd.OutOrStdout()

	id, err := strconv.ParseUint(idArg, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid meeting id %q", idArg)
	}

	mgr, err := managerFromConfig(configPath)
	if err != nil {
		return err
	}

	m, err := mgr.GetByID(uint(id))
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("meeting %d not found", id)
	}

	fmt.Fprintf(out, "Meeting %d: %s\n", m.ID, m.Title)
	if m.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", m.Description)
	}
	fmt.Fprintf(out, "Start:       %s\n", m.StartTime.Format(timeLayout))
	fmt.Fprintf(out, "End:         %s\n", m.EndTime.Format(timeLayout))
	fmt.Fprintf(out, "Creator:     %s (%s)\n", m.CreatorUsername, m.CreatorID)
	fmt.Fprintf(out, "Event ID:    %s\n", m.EventID)
	if m.CalendarLink != "" {
		fmt.Fprintf(out, "Calendar:    %s\n", m.CalendarLink)
	}

	regs, err := mgr.Roster(m.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nRegistered:  %d\n", len(regs))
	for _, r := range regs {
		fmt.Fprintf(out, "  - %s (%s) at %s\n", r.Username, r.UserID, r.RegisteredAt.Format(timeLayout))
	}
	return nil
}

func newMeetingDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a meeting and its registrations",
		Long:  "Removes a meeting from the store regardless of who created it. Remote calendar events are not touched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetingDelete(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "quorum.yaml", "path to Quorum config file")
	return cmd
}

func runMeetingDelete(cmd *cobra.Command, configPath, idArg string) error {
	out := cmd.OutOrStdout()

	id, err := strconv.ParseUint(idArg, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid meeting id %q", idArg)
	}

	mgr, err := managerFromConfig(configPath)
	if err != nil {
		return err
	}

	m, err := mgr.GetByID(uint(id))
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("meeting %d not found", id)
	}

	// Operator override: delete on behalf of the creator.
	if err := mgr.Delete(cmd.Context(), m.ID, m.CreatorID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted meeting %d (%s)\n", m.ID, m.Title)
	return nil
}
