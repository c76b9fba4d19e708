package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/renderjob"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage the render job queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []renderjob.Status
			if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
				for _, part := range strings.Split(trimmed, ",") {
					status, ok := renderjob.ParseStatus(part)
					if !ok {
						return fmt.Errorf("unknown status %q", part)
					}
					statuses = append(statuses, status)
				}
			}

			jobs, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}

			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				rows = append(rows, []string{
					shortID(job.JobID),
					job.ProjectName,
					statusText(job.Status, colorize),
					progressCell(job),
					jobGraphSummary(job),
					job.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Job", "Project", "Status", "Progress", "Graph", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (comma separated)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one render job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			job, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Job: %s\n", job.JobID)
			fmt.Fprintf(out, "Project: %s (snapshot v%d)\n", job.ProjectName, job.SnapshotVersion)
			fmt.Fprintf(out, "Status: %s\n", statusText(job.Status, colorize))
			fmt.Fprintf(out, "Output: %s\n", job.OutputPath)
			if job.ArtifactPath != "" {
				fmt.Fprintf(out, "Artifact: %s\n", job.ArtifactPath)
			}
			if job.ProgressStage != "" {
				fmt.Fprintf(out, "Progress: %s %s\n", job.ProgressStage, progressCell(job))
			}
			if job.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", job.ErrorMessage)
			}
			fmt.Fprintf(out, "Created: %s\n", job.CreatedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Updated: %s\n", job.UpdatedAt.Local().Format(time.RFC3339))
			return nil
		},
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of a render job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			job, err := store.RequestCancel(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if job.Status == renderjob.StatusCompleted {
				fmt.Fprintf(out, "Job %s already completed; artifact kept at %s\n", job.JobID, job.ArtifactPath)
				return nil
			}
			fmt.Fprintf(out, "Job %s is now %s\n", job.JobID, job.Status)
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished job(s)\n", removed)
			return nil
		},
	}
}

func progressCell(job *renderjob.Job) string {
	if job.ProgressPercent <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", job.ProgressPercent)
}

func jobGraphSummary(job *renderjob.Job) string {
	var graph struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(job.GraphJSON), &graph); err != nil {
		return "-"
	}
	return fmt.Sprintf("%d nodes", len(graph.Nodes))
}
