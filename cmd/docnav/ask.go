package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/app"
	"github.com/dgallion1/docnav/internal/parser"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/dgallion1/docnav/internal/qa"
)

var askCmd = &cobra.Command{
	Use:   "ask <document-id|file> <question>",
	Short: "Answer a question about a stored document or a local file",
	Long: `Answer a question from a document's extracted text.

The first argument is a stored document ID or a path. Text, Markdown, CSV, HTML
and Word files are read directly, as are PDFs with a text layer. Images and
scanned PDFs are processed first (or reused if already stored).`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args[1:], " ")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ans, err := ask(cmd, a, args[0], question)
		if err != nil {
			return err
		}
		renderAnswer(cmd.OutOrStdout(), ans)
		return nil
	},
}

func ask(cmd *cobra.Command, a *app.App, target, question string) (qa.Answer, error) {
	ctx := cmd.Context()
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return a.Answerer.Answer(ctx, target, question)
	}

	if parser.IsSupportedExtension(target) {
		pages, err := parser.ParseFile(target)
		switch {
		case err == nil:
			return a.Answerer.AnswerText(ctx, parser.Join(pages), question)
		case errors.Is(err, parser.ErrNoTextLayer):
			fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("no text layer, running OCR"))
		default:
			return qa.Answer{}, err
		}
	}

	doc, err := a.Executor.Process(ctx, pipeline.SourceFile{Path: target, Size: info.Size()})
	if doc == nil || (err != nil && !errors.Is(err, pipeline.ErrDuplicate) && !errors.Is(err, pipeline.ErrNotPersisted)) {
		return qa.Answer{}, fmt.Errorf("process %s: %w", target, err)
	}
	return a.Answerer.AnswerDocument(ctx, doc, question)
}

func init() {
	rootCmd.AddCommand(askCmd)
}
