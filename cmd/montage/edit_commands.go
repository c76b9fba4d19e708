package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"montage/internal/session"
	"montage/internal/timeline"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a project timeline",
	}

	editCmd.AddCommand(newEditAddClipCommand(ctx))
	editCmd.AddCommand(newEditAddTextCommand(ctx))
	editCmd.AddCommand(newEditSplitCommand(ctx))
	editCmd.AddCommand(newEditResizeCommand(ctx))
	editCmd.AddCommand(newEditMoveCommand(ctx))
	editCmd.AddCommand(newEditRemoveCommand(ctx))
	editCmd.AddCommand(newEditDuplicateCommand(ctx))

	return editCmd
}

// withSession opens the project's editing session, applies the edit, and
// saves. Every edit subcommand is one save cycle so a crash between commands
// never leaves a half-applied project file.
func (c *commandContext) withSession(projectArg string, fn func(*session.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	sess, err := session.Open(resolveProjectArg(cfg, projectArg), logger,
		session.WithSnapThreshold(float64(cfg.Editing.SnapThresholdMS)/1000))
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := fn(sess); err != nil {
		return err
	}
	return sess.Save()
}

// resolveElementID expands a short id prefix to a full element id.
func resolveElementID(tl *timeline.Timeline, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("element id is required")
	}
	var matches []string
	for _, clip := range tl.Clips() {
		if strings.HasPrefix(clip.ID, prefix) {
			matches = append(matches, clip.ID)
		}
	}
	for _, text := range tl.Texts() {
		if strings.HasPrefix(text.ID, prefix) {
			matches = append(matches, text.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no element matches id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func parseSeconds(arg, what string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", what, arg, err)
	}
	return value, nil
}

func newEditAddClipCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var sourceDuration float64
	var startFlag float64
	var volumeFlag float64

	cmd := &cobra.Command{
		Use:   "add-clip <project> <source>",
		Short: "Append a media clip",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, ok := timeline.ParseMediaType(typeFlag)
			if !ok {
				return fmt.Errorf("unknown media type %q (video, audio, image)", typeFlag)
			}
			if sourceDuration <= 0 && mediaType != timeline.MediaImage {
				return fmt.Errorf("--source-duration is required for %s clips", mediaType)
			}

			return ctx.withSession(args[0], func(sess *session.Session) error {
				clip := timeline.NewMediaClip(mediaType, args[1], sourceDuration)
				if mediaType == timeline.MediaImage {
					clip.PositionEnd = clip.PositionStart + 5
				}
				if mediaType != timeline.MediaVideo {
					clip.PositionStart = startFlag
					clip.PositionEnd += startFlag
				}
				if cmd.Flags().Changed("volume") {
					clip.Volume = volumeFlag
				}
				if err := sess.Edit(func(tl *timeline.Timeline) error {
					return tl.AddClip(clip)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s clip %s\n", mediaType, shortID(clip.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "video", "Media type: video, audio, or image")
	cmd.Flags().Float64Var(&sourceDuration, "source-duration", 0, "Source media duration in seconds")
	cmd.Flags().Float64Var(&startFlag, "start", 0, "Timeline position for audio and image clips")
	cmd.Flags().Float64Var(&volumeFlag, "volume", timeline.UnityVolume, "Volume control value, 0-100")
	return cmd
}

func newEditAddTextCommand(ctx *commandContext) *cobra.Command {
	var startFlag, endFlag float64
	var xFlag, yFlag, sizeFlag float64

	cmd := &cobra.Command{
		Use:   "add-text <project> <text>",
		Short: "Place a text element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if endFlag <= startFlag {
				return fmt.Errorf("--end must be after --start")
			}
			return ctx.withSession(args[0], func(sess *session.Session) error {
				text := timeline.NewTextElement(args[1])
				text.PositionStart = startFlag
				text.PositionEnd = endFlag
				text.X = xFlag
				text.Y = yFlag
				if sizeFlag > 0 {
					text.FontSize = sizeFlag
				}
				if err := sess.Edit(func(tl *timeline.Timeline) error {
					return tl.AddText(text)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added text %s\n", shortID(text.ID))
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&startFlag, "start", 0, "Timeline start in seconds")
	cmd.Flags().Float64Var(&endFlag, "end", 0, "Timeline end in seconds")
	cmd.Flags().Float64Var(&xFlag, "x", 0, "Canvas X position")
	cmd.Flags().Float64Var(&yFlag, "y", 0, "Canvas Y position")
	cmd.Flags().Float64Var(&sizeFlag, "size", 0, "Font size in canvas pixels")
	return cmd
}

func newEditSplitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "split <project> <element-id> <time>",
		Short: "Split an element at a timeline position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cutTime, err := parseSeconds(args[2], "cut time")
			if err != nil {
				return err
			}
			return ctx.withSession(args[0], func(sess *session.Session) error {
				return sess.Edit(func(tl *timeline.Timeline) error {
					id, err := resolveElementID(tl, args[1])
					if err != nil {
						return err
					}
					leftID, rightID, err := tl.Split(id, cutTime)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Split into %s and %s\n", shortID(leftID), shortID(rightID))
					return nil
				})
			})
		},
	}
}

func newEditResizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <project> <element-id> <start|end> <duration>",
		Short: "Resize an element from one edge to a new duration",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edge timeline.Edge
			switch strings.ToLower(strings.TrimSpace(args[2])) {
			case "start":
				edge = timeline.EdgeStart
			case "end":
				edge = timeline.EdgeEnd
			default:
				return fmt.Errorf("edge must be start or end, got %q", args[2])
			}
			duration, err := parseSeconds(args[3], "duration")
			if err != nil {
				return err
			}
			return ctx.withSession(args[0], func(sess *session.Session) error {
				return sess.Edit(func(tl *timeline.Timeline) error {
					id, err := resolveElementID(tl, args[1])
					if err != nil {
						return err
					}
					return tl.Resize(id, edge, duration)
				})
			})
		},
	}
}

func newEditMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <project> <clip-id> <start-time>",
		Short: "Move a video clip to a new track position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseSeconds(args[2], "start time")
			if err != nil {
				return err
			}
			return ctx.withSession(args[0], func(sess *session.Session) error {
				return sess.Edit(func(tl *timeline.Timeline) error {
					id, err := resolveElementID(tl, args[1])
					if err != nil {
						return err
					}
					return tl.MoveVideoClip(id, start)
				})
			})
		},
	}
}

func newEditRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <project> <element-id>",
		Short: "Remove an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(args[0], func(sess *session.Session) error {
				return sess.Edit(func(tl *timeline.Timeline) error {
					id, err := resolveElementID(tl, args[1])
					if err != nil {
						return err
					}
					return tl.Remove(id)
				})
			})
		},
	}
}

func newEditDuplicateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <project> <element-id>",
		Short: "Duplicate an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(args[0], func(sess *session.Session) error {
				return sess.Edit(func(tl *timeline.Timeline) error {
					id, err := resolveElementID(tl, args[1])
					if err != nil {
						return err
					}
					newID, err := tl.Duplicate(id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Duplicated as %s\n", shortID(newID))
					return nil
				})
			})
		},
	}
}
