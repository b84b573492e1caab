package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"resume-render/internal/templates"
	"resume-render/pkg/models"
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newTemplatesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in resume templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := templates.Default()
			if err != nil {
				return fmt.Errorf("load template catalog: %w", err)
			}
			if asJSON {
				return writeTemplatesJSON(cmd.OutOrStdout(), reg.Summaries())
			}
			writeTemplatesTable(cmd.OutOrStdout(), reg.Summaries())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func writeTemplatesJSON(w io.Writer, list []models.TemplateSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(models.TemplateListResponse{Templates: list, Count: len(list)})
}

func writeTemplatesTable(w io.Writer, list []models.TemplateSummary) {
	idWidth := len("ID")
	for _, t := range list {
		idWidth = max(idWidth, len(t.ID))
	}

	row := func(id, name, cols, header string) string {
		return fmt.Sprintf("%-*s  %-7s  %-9s  %s", idWidth, id, cols, header, name)
	}
	fmt.Fprintln(w, styleTitle.Render(row("ID", "NAME", "COLUMNS", "HEADER")))
	for _, t := range list {
		header := string(t.HeaderStyle)
		if header == "" {
			header = "standard"
		}
		fmt.Fprintln(w, row(t.ID, t.Name, strconv.Itoa(t.Columns), header))
	}
	fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("%d templates", len(list))))
}
