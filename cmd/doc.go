package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lecsum/internal/service"
	"github.com/abhisek/lecsum/internal/store"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage lecture documents",
}

var docAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Store a text file as a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = filepath.Base(args[0])
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)

		doc, err := a.Service.AddDocument(cmd.Context(), service.AddDocumentRequest{Name: name, Content: string(content)})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added document #%d (%s)\n", doc.ID, doc.Name)
		return nil
	},
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(cmd, a)

		docs, err := a.Service.ListDocuments(cmd.Context(), store.PageOpts{Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No documents yet. Add one with: lecsum doc add <file>")
			return nil
		}

		t := newTable("ID", "Name", "Size", "Added")
		for _, d := range docs {
			t.Row(strconv.FormatInt(d.ID, 10), truncate(d.Name, 40), fmt.Sprintf("%d chars", len([]rune(d.Content))), d.CreatedAt.Local().Format(timeLayout))
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

func init() {
	docAddCmd.Flags().String("name", "", "Document name (default: file name)")
	docListCmd.Flags().IntP("limit", "n", 20, "Number of documents to show")
	docListCmd.Flags().Int("offset", 0, "Number of documents to skip")

	docCmd.AddCommand(docAddCmd)
	docCmd.AddCommand(docListCmd)
}
