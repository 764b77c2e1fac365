package cmd

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classgate/kiosk/internal/camera"
	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/overlay"
	"github.com/classgate/kiosk/internal/recognizer"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize",
	Short: "Run the recognition loop headlessly",
	Long: `Run the recognition polling loop without the web UI, printing results
to stdout. Useful for testing the camera and the recognition service.
Stops after --count recognitions, or on Ctrl+C when --count is 0.`,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Int("count", 0, "Number of recognitions before exiting (0 = run forever)")
	recognizeCmd.Flags().Duration("interval", 0, "Polling interval (overrides KIOSK_POLL_INTERVAL)")
	recognizeCmd.Flags().String("out", "", "Directory to write annotated frames to")
}

// writeAnnotatedFrame renders the recognition onto the frame and writes it
// as a timestamped JPEG.
func writeAnnotatedFrame(dir string, frame *camera.Frame, rec *recognizer.Recognition, quality int) error {
	annotated := overlay.Render(frame.Image, rec)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("could not encode frame: %w", err)
	}

	name := fmt.Sprintf("%s_%06d.jpg", time.Now().Format("20060102_150405"), frame.Seq)
	return os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644)
}

func printRecognition(rec *recognizer.Recognition) {
	if !rec.Match {
		fmt.Println("No match")
		return
	}
	fmt.Printf("Match: %s (ID %s, %s) confidence %.1f%%\n",
		rec.Name, rec.ID, rec.Role, rec.Confidence*100)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if interval, err := cmd.Flags().GetDuration("interval"); err == nil && interval > 0 {
		cfg.Timing.PollInterval = interval
	}

	outDir := mustGetString(cmd, "out")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("could not create output directory: %w", err)
		}
	}

	client, err := newRecognizerClient(cfg)
	if err != nil {
		return fmt.Errorf("creating recognizer client: %w", err)
	}

	source, err := newCameraSource(cfg)
	if err != nil {
		return fmt.Errorf("creating camera source: %w", err)
	}
	controller := camera.NewController(source, cfg.Timing.PostAcquireDelay, cfg.Timing.ReadinessGrace)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := controller.Start(ctx); err != nil {
		cause := camera.Classify(err)
		return fmt.Errorf("%s (%w)", cause.Message(), err)
	}
	defer controller.Stop()

	limit := mustGetInt(cmd, "count")
	fmt.Printf("Polling %s every %s, Ctrl+C to stop\n", cfg.Recognizer.URL, cfg.Timing.PollInterval)

	// Same cadence as the kiosk UI: warmup first, then one request per tick.
	select {
	case <-time.After(cfg.Timing.CameraWarmup):
	case <-ctx.Done():
		return nil
	}

	ticker := time.NewTicker(cfg.Timing.PollInterval)
	defer ticker.Stop()

	done := 0
	for limit == 0 || done < limit {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frameData, err := controller.CaptureFrame(cfg.Capture.PollingJPEGQuality)
		if err != nil {
			continue
		}

		rec, err := client.Recognize(ctx, frameData)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "recognition failed: %v\n", err)
			continue
		}

		printRecognition(rec)
		done++

		if outDir != "" {
			if frame := controller.LatestFrame(); frame != nil {
				if err := writeAnnotatedFrame(outDir, frame, rec, cfg.Capture.ManualJPEGQuality); err != nil {
					fmt.Fprintf(os.Stderr, "could not save frame: %v\n", err)
				}
			}
		}
	}
	return nil
}
