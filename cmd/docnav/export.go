package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/export"
)

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export <document-id> <md|html|docx>",
	Short: "Write a stored document as Markdown, HTML or Word",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(args[1])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := a.Store.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		path := exportPath
		if path == "" {
			path = export.FileName(doc, format)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.Write(f, doc, format); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ ")+"wrote "+path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "out", "w", "", "Output path (default <name>.<format>)")
	rootCmd.AddCommand(exportCmd)
}
