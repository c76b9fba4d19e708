package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"montage/internal/config"
	"montage/internal/project"
	"montage/internal/timecode"
	"montage/internal/timeline"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Create and inspect editing projects",
	}

	projectCmd.AddCommand(newProjectNewCommand(ctx))
	projectCmd.AddCommand(newProjectInspectCommand(ctx))

	return projectCmd
}

func newProjectNewCommand(ctx *commandContext) *cobra.Command {
	var fpsFlag float64

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create an empty project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("project name is required")
			}

			fps := fpsFlag
			if fps <= 0 {
				fps = cfg.Editing.DefaultFPS
			}
			rate, err := timecode.NewFrameRate(fps)
			if err != nil {
				return fmt.Errorf("frame rate: %w", err)
			}

			path := projectPath(cfg, name)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("project already exists at %s", path)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("check project path: %w", err)
			}

			doc := project.FromTimeline(name, timeline.New(rate), profileFromConfig(cfg))
			if err := project.Save(path, doc); err != nil {
				return fmt.Errorf("save project: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s at %s\n", name, path)
			return nil
		},
	}

	cmd.Flags().Float64Var(&fpsFlag, "fps", 0, "Frame rate for the new project (default from config)")
	return cmd
}

func newProjectInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <project>",
		Short: "Show the elements of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := resolveProjectArg(cfg, args[0])
			doc, err := project.Load(path)
			if err != nil {
				return err
			}
			tl, err := doc.Timeline()
			if err != nil {
				return fmt.Errorf("restore timeline: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project: %s\n", doc.Name)
			fmt.Fprintf(out, "Frame rate: %.3f fps\n", doc.FPS)
			fmt.Fprintf(out, "Duration: %.3fs\n", tl.TotalDuration())
			fmt.Fprintf(out, "Saved: %s\n", doc.SavedAt.Local().Format("2006-01-02 15:04:05"))

			clips := tl.Clips()
			if len(clips) > 0 {
				rows := make([][]string, 0, len(clips))
				for _, clip := range clips {
					rows = append(rows, []string{
						shortID(clip.ID),
						string(clip.MediaType),
						clip.Source,
						fmt.Sprintf("%.3f", clip.PositionStart),
						fmt.Sprintf("%.3f", clip.PositionEnd),
						fmt.Sprintf("%.2fx", clip.Speed()),
						fmt.Sprintf("%.0f", clip.Volume),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Type", "Source", "Start", "End", "Speed", "Volume"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
			}

			texts := tl.Texts()
			if len(texts) > 0 {
				rows := make([][]string, 0, len(texts))
				for _, text := range texts {
					rows = append(rows, []string{
						shortID(text.ID),
						text.Text,
						fmt.Sprintf("%.3f", text.PositionStart),
						fmt.Sprintf("%.3f", text.PositionEnd),
						fmt.Sprintf("%.0f", text.FontSize),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Text", "Start", "End", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
			}

			if len(clips) == 0 && len(texts) == 0 {
				fmt.Fprintln(out, "Project is empty")
			}
			return nil
		},
	}
}

// resolveProjectArg accepts a bare project name or a path to a project file.
func resolveProjectArg(cfg *config.Config, arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.ContainsRune(arg, os.PathSeparator) || strings.HasSuffix(arg, ".json") {
		if expanded, err := config.ExpandPath(arg); err == nil {
			return expanded
		}
		return arg
	}
	return projectPath(cfg, arg)
}

func projectPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.Paths.ProjectDir, name+".json")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
