package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"montage/internal/project"
)

func newGraphCommand(ctx *commandContext) *cobra.Command {
	var dotFlag bool
	var outFlag string

	cmd := &cobra.Command{
		Use:   "graph <project>",
		Short: "Compile a project and print its render graph",
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

			if dotFlag {
				dot := graph.DOT()
				if outFlag != "" {
					if err := os.WriteFile(outFlag, []byte(dot), 0o644); err != nil {
						return fmt.Errorf("write dot file: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote graph to %s\n", outFlag)
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), dot)
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Inputs: %d  Nodes: %d  Duration: %.3fs\n", len(graph.Inputs), len(graph.Nodes), graph.Profile.DurationSeconds)
			rows := make([][]string, 0, len(graph.Nodes))
			for _, node := range graph.Nodes {
				rows = append(rows, []string{
					node.ID,
					string(node.Kind),
					fmt.Sprintf("%d", len(node.Inputs)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Node", "Kind", "Upstream"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Video terminal: %s\n", graph.TerminalVideo)
			if graph.TerminalAudio != "" {
				fmt.Fprintf(out, "Audio terminal: %s\n", graph.TerminalAudio)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dotFlag, "dot", false, "Emit the graph in Graphviz dot format")
	cmd.Flags().StringVarP(&outFlag, "output", "o", "", "Write dot output to a file")
	return cmd
}
