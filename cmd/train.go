package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/recognizer"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Trigger model training on the recognition service",
	Long: `Ask the recognition service to retrain its face model.
With --section and --year it trains the student model for that class;
without them it trains the teacher model.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("section", "", "Section to train the student model for")
	trainCmd.Flags().String("year", "", "Year to train the student model for")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	client, err := newRecognizerClient(cfg)
	if err != nil {
		return fmt.Errorf("creating recognizer client: %w", err)
	}

	section := mustGetString(cmd, "section")
	year := mustGetString(cmd, "year")

	if section == "" && year == "" {
		fmt.Println("Training teacher model...")
	} else {
		fmt.Printf("Training student model for section %s, year %s...\n", section, year)
	}

	result, err := client.Train(cmd.Context(), section, year)
	if err != nil {
		if detail := recognizer.ErrorDetail(err); detail != "" {
			return fmt.Errorf("training rejected: %s", detail)
		}
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Printf("%s\n", result.Message)
	if result.TeachersTrained > 0 {
		fmt.Printf("  Teachers trained: %d\n", result.TeachersTrained)
	}
	if result.StudentsTrained > 0 {
		fmt.Printf("  Students trained: %d\n", result.StudentsTrained)
	}
	fmt.Printf("  Encodings: %d\n", result.EncodingsCount)
	if result.ModelPath != "" {
		fmt.Printf("  Model: %s\n", result.ModelPath)
	}
	return nil
}
