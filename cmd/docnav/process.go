package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/pipeline"
)

var force bool
var outputFormat string

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Run a document through the page pipeline and store the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := parseOutput(outputFormat)
		if err != nil {
			return err
		}
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", args[0])
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		doc, err := a.Executor.Process(ctx, pipeline.SourceFile{
			Path:  args[0],
			Size:  info.Size(),
			Force: force,
		})
		switch {
		case errors.Is(err, pipeline.ErrDuplicate):
			fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("already processed; use --force to run again"))
		case errors.Is(err, pipeline.ErrNotPersisted):
			fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("warning: ")+err.Error())
		case err != nil && doc == nil:
			return err
		}
		if rerr := render(cmd.OutOrStdout(), doc, out); rerr != nil {
			return rerr
		}
		if err != nil && !errors.Is(err, pipeline.ErrDuplicate) && !errors.Is(err, pipeline.ErrNotPersisted) {
			return err
		}
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVarP(&force, "force", "f", false, "Process even if a document with the same name and size exists")
	processCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, yaml, json)")
	rootCmd.AddCommand(processCmd)
}
