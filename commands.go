package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive spectrogram over HTTP",
		Long: `serve runs the render loop and exposes the view, input events, capture
controls, saved sounds and WAV export as an HTTP API. /api/live streams the
latest spectrum frame over a WebSocket on every tick.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.ListenAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override listen_addr")
	return cmd
}

func toneCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "tone",
		Short: "Play the test tone and save its spectrogram as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.tone(cmd.Context(), out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "tone.png", "spectrogram PNG to write")
	return cmd
}

func recordCmd(a *app) *cobra.Command {
	var (
		duration time.Duration
		out      string
		png      string
		save     string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the default microphone",
		Long: `record captures from the default input device until the duration
elapses or the command is interrupted, then writes the recording as WAV.`,
		Example: `  # Record five seconds and store it as "hum"
  musicmaker record -d 5s --save hum`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.record(cmd.Context(), recordOptions{duration: duration, out: out, png: png, save: save})
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 waits for Ctrl+C)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "WAV file to write (default recordings/recording_<time>.wav)")
	cmd.Flags().StringVar(&png, "png", "", "also write the spectrogram as PNG")
	cmd.Flags().StringVar(&save, "save", "", "also store the recording under this name")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var start, end, out string
	cmd := &cobra.Command{
		Use:   "export <input>",
		Short: "Trim an audio file and write it as 16-bit PCM WAV",
		Example: `  musicmaker export take.mp3 --start 1.5 --end 4 -o take.wav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.export(cmd.Context(), args[0], start, end, out)
		},
	}
	cmd.Flags().StringVar(&start, "start", "0", "trim start in seconds")
	cmd.Flags().StringVar(&end, "end", "", "trim end in seconds (default: end of clip)")
	cmd.Flags().StringVarP(&out, "out", "o", "recording.wav", "WAV file to write")
	return cmd
}

func renderCmd(a *app) *cobra.Command {
	var (
		out      string
		strategy string
		width    int
	)
	cmd := &cobra.Command{
		Use:   "render <input>",
		Short: "Render the spectrogram of an audio file to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd.Context(), args[0], renderOptions{out: out, strategy: strategy, width: width})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "spectrogram.png", "PNG file to write")
	cmd.Flags().StringVar(&strategy, "strategy", "", "windowed or scrolling (default view.strategy)")
	cmd.Flags().IntVar(&width, "width", 0, "raster width in pixels (default view.width)")
	return cmd
}

func savedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved sounds",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved sounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.savedList(cmd.Context())
		},
	}

	var start, end string
	save := &cobra.Command{
		Use:   "save <name> <input>",
		Short: "Trim an audio file and store it under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.savedSave(cmd.Context(), args[0], args[1], start, end)
		},
	}
	save.Flags().StringVar(&start, "start", "0", "trim start in seconds")
	save.Flags().StringVar(&end, "end", "", "trim end in seconds (default: end of clip)")

	var out string
	export := &cobra.Command{
		Use:   "export <index>",
		Short: "Write a saved sound to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return a.savedExport(cmd.Context(), idx, out)
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "", "WAV file to write (default <name>.wav)")

	cmd.AddCommand(list, save, export)
	return cmd
}
