package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/classgate/kiosk/internal/camera"
	"github.com/classgate/kiosk/internal/config"
	"github.com/classgate/kiosk/internal/recognizer"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a teacher with the recognition service",
	Long: `Register a teacher by uploading face images to the recognition service.
Images come either from a directory (--images) or are captured live from
the configured camera (--count frames).`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("name", "", "Teacher's full name (required)")
	registerCmd.Flags().String("id", "", "Teacher ID (required)")
	registerCmd.Flags().String("phone", "", "Phone number")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("salary", "", "Salary")
	registerCmd.Flags().String("images", "", "Directory of face images to upload")
	registerCmd.Flags().Int("count", recognizer.MinRegistrationImages, "Number of frames to capture from the camera")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("id")
}

// loadImagesFromDir reads all JPEG files from a directory.
func loadImagesFromDir(dir string) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read image directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	images := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", path, err)
		}
		images = append(images, data)
	}
	return images, nil
}

// captureFromCamera grabs count frames from the configured camera, one per
// second so the subject can move between shots.
func captureFromCamera(ctx context.Context, cfg *config.Config, count int) ([][]byte, error) {
	source, err := newCameraSource(cfg)
	if err != nil {
		return nil, err
	}
	controller := camera.NewController(source, cfg.Timing.PostAcquireDelay, cfg.Timing.ReadinessGrace)
	if err := controller.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting camera: %w", err)
	}
	defer controller.Stop()

	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription("Capturing frames"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	images := make([][]byte, 0, count)
	for len(images) < count {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}

		data, err := controller.CaptureFrame(cfg.Capture.ManualJPEGQuality)
		if err != nil {
			continue // camera still warming up
		}
		images = append(images, data)
		bar.Add(1)
	}
	fmt.Println()
	return images, nil
}

// warnOnDuplicateName checks the registered teachers for a name that matches
// after case folding and diacritics removal.
func warnOnDuplicateName(ctx context.Context, client *recognizer.Client, name string) {
	list, err := client.ListTeachers(ctx)
	if err != nil {
		return // listing is best effort, registration proceeds either way
	}
	for _, teacher := range list.Teachers {
		if recognizer.SameName(teacher.Name, name) {
			fmt.Printf("Warning: a teacher named %q (ID %s) is already registered\n",
				teacher.Name, teacher.TeacherID)
			return
		}
	}
}

func runRegister(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := cmd.Context()

	client, err := newRecognizerClient(cfg)
	if err != nil {
		return fmt.Errorf("creating recognizer client: %w", err)
	}

	name := mustGetString(cmd, "name")
	warnOnDuplicateName(ctx, client, name)

	var images [][]byte
	if dir := mustGetString(cmd, "images"); dir != "" {
		images, err = loadImagesFromDir(dir)
	} else {
		images, err = captureFromCamera(ctx, cfg, mustGetInt(cmd, "count"))
	}
	if err != nil {
		return err
	}

	result, err := client.RegisterTeacher(ctx, recognizer.TeacherRegistration{
		TeacherID: mustGetString(cmd, "id"),
		Name:      name,
		Phone:     mustGetString(cmd, "phone"),
		Email:     mustGetString(cmd, "email"),
		Salary:    mustGetString(cmd, "salary"),
		Images:    images,
	})
	if err != nil {
		if detail := recognizer.ErrorDetail(err); detail != "" {
			return fmt.Errorf("registration rejected: %s", detail)
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("%s\n", result.Message)
	fmt.Printf("  Images uploaded: %d\n", result.ImagesUploaded)
	if result.Folder != "" {
		fmt.Printf("  Folder: %s\n", result.Folder)
	}
	return nil
}
