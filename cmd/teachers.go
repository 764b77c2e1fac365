package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/classgate/kiosk/internal/config"
)

var teachersCmd = &cobra.Command{
	Use:   "teachers",
	Short: "List teachers registered with the recognition service",
	RunE:  runTeachers,
}

func init() {
	rootCmd.AddCommand(teachersCmd)
}

func runTeachers(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	client, err := newRecognizerClient(cfg)
	if err != nil {
		return fmt.Errorf("creating recognizer client: %w", err)
	}

	list, err := client.ListTeachers(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing teachers: %w", err)
	}

	if list.TotalCount == 0 {
		fmt.Println("No teachers registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL")
	for _, t := range list.Teachers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TeacherID, t.Name, t.Phone, t.Email)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d\n", list.TotalCount)
	return nil
}
