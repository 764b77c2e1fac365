package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classgate/kiosk/internal/camera"
	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/kiosk"
	"github.com/classgate/kiosk/internal/notify"
	"github.com/classgate/kiosk/internal/recognizer"
	"github.com/classgate/kiosk/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk web server",
	Long: `Start the ClassGate Kiosk web server.
The server drives the camera, talks to the recognition service, and serves
the browser UI for teacher registration and face recognition.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
}

// newCameraSource picks the frame source from configuration: a directory of
// stills when CAMERA_SOURCE_DIR is set, the V4L2 device otherwise.
func newCameraSource(cfg *config.Config) (camera.Source, error) {
	if cfg.Camera.SourceDir != "" {
		fmt.Printf("Using directory frame source: %s\n", cfg.Camera.SourceDir)
		return camera.NewDirSource(cfg.Camera.SourceDir, cfg.Camera.FPS)
	}
	return camera.NewDeviceSource(cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
}

// newRecognizerClient builds the recognition service client, honoring the
// global --capture flag.
func newRecognizerClient(cfg *config.Config) (*recognizer.Client, error) {
	return recognizer.NewClientWithCapture(
		cfg.Recognizer.URL, cfg.Recognizer.Section, cfg.Recognizer.Year, captureDir)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
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

	notes := notify.NewCenter(cfg.Timing.NotificationTTL)
	session := kiosk.NewSession(cfg, client, controller, notes)
	server := web.NewServer(cfg, session, client, notes)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting ClassGate Kiosk on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Recognition service: %s\n", cfg.Recognizer.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
