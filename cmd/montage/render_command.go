package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/project"
	"montage/internal/renderer"
	"montage/internal/renderjob"
)

const renderPollInterval = 500 * time.Millisecond

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string

	cmd := &cobra.Command{
		Use:   "render <project>",
		Short: "Compile a project and render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			doc, err := project.Load(resolveProjectArg(cfg, args[0]))
			if err != nil {
				return err
			}
			tl, err := doc.Timeline()
			if err != nil {
				return fmt.Errorf("restore timeline: %w", err)
			}

			compiler, err := ctx.newCompiler()
			if err != nil {
				return err
			}
			graph, err := compiler.Compile(cmd.Context(), tl, doc.Profile)
			if err != nil {
				return err
			}

			outputPath := strings.TrimSpace(outputFlag)
			if outputPath == "" {
				outputPath = filepath.Join(cfg.Paths.RenderDir, doc.Name+".mp4")
			}

			opts := renderer.SubmitOptions{
				ProjectName:     doc.Name,
				SnapshotVersion: doc.Version,
				OutputPath:      outputPath,
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			remote, err := ctx.remoteAdapter()
			if err != nil {
				return err
			}
			if remote != nil {
				job, err := remote.Submit(signalCtx, graph, opts)
				if err != nil {
					return fmt.Errorf("submit render: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s to %s\n", job.JobID, cfg.Queue.RemoteURL)
				return waitForJob(signalCtx, cmd, remote, job.JobID)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			engine, err := ctx.newEngine(logger)
			if err != nil {
				return err
			}
			local := renderer.NewLocal(store, engine, logger)

			workerCtx, stopWorker := context.WithCancel(signalCtx)
			defer stopWorker()
			go local.Start(workerCtx)

			job, err := local.Submit(signalCtx, graph, opts)
			if err != nil {
				return fmt.Errorf("submit render: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendering %s (job %s)\n", doc.Name, job.JobID)
			return waitForJob(signalCtx, cmd, local, job.JobID)
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file path (default <render_dir>/<name>.mp4)")
	return cmd
}

// waitForJob polls until the job reaches a terminal status, printing progress
// transitions. On interrupt it requests cancellation and reports the final
// status the queue settled on.
func waitForJob(ctx context.Context, cmd *cobra.Command, adapter renderer.Adapter, jobID string) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	var lastStage string
	cancelRequested := false
	ticker := time.NewTicker(renderPollInterval)
	defer ticker.Stop()

	for {
		job, err := adapter.Status(context.WithoutCancel(ctx), jobID)
		if err != nil {
			return fmt.Errorf("poll job %s: %w", jobID, err)
		}

		if job.ProgressStage != "" && job.ProgressStage != lastStage {
			lastStage = job.ProgressStage
			fmt.Fprintf(out, "  %s\n", job.ProgressStage)
		}

		if job.Status.Terminal() {
			return reportFinalJob(out, job, colorize)
		}

		select {
		case <-ctx.Done():
			if !cancelRequested {
				cancelRequested = true
				fmt.Fprintln(out, "Interrupt received; cancelling render")
				if _, err := adapter.Cancel(context.WithoutCancel(ctx), jobID); err != nil {
					return fmt.Errorf("cancel job %s: %w", jobID, err)
				}
			}
			time.Sleep(renderPollInterval)
		case <-ticker.C:
		}
	}
}

func reportFinalJob(out io.Writer, job *renderjob.Job, colorize bool) error {
	switch job.Status {
	case renderjob.StatusCompleted:
		fmt.Fprintf(out, "Render %s: %s\n", statusText(job.Status, colorize), job.ArtifactPath)
		return nil
	case renderjob.StatusCancelled:
		fmt.Fprintf(out, "Render %s\n", statusText(job.Status, colorize))
		return nil
	default:
		return fmt.Errorf("render failed: %s", job.ErrorMessage)
	}
}
