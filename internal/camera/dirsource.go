package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/classgate/kiosk/internal/constants"
)

// DirSource replays still images from a directory at a fixed rate, looping
// forever. It stands in for a real capture device in tests and headless
// deployments without a webcam.
type DirSource struct {
	dir string
	fps float64

	mu     sync.Mutex
	frames chan Frame
	cancel context.CancelFunc
	wg     sync.WaitGroup

	frameCounter uint64
	closed       atomic.Bool
}

// NewDirSource creates a source that loops over the JPEG/PNG files in dir.
func NewDirSource(dir string, fps float64) (*DirSource, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: no source directory configured", ErrNotFound)
	}
	if fps <= 0 {
		fps = 1
	}
	return &DirSource{dir: dir, fps: fps}, nil
}

// listImages returns the sorted image paths in the source directory.
func (s *DirSource) listImages() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.dir)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermission, s.dir)
		}
		return nil, fmt.Errorf("could not read source directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, filepath.Join(s.dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrNotFound, s.dir)
	}
	return paths, nil
}

func (s *DirSource) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, fmt.Errorf("camera: source already started")
	}

	paths, err := s.listImages()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.frames = make(chan Frame, constants.FrameChannelBuffer)
	s.closed.Store(false)

	s.wg.Add(1)
	go s.run(ctx, paths)

	return s.frames, nil
}

func (s *DirSource) run(ctx context.Context, paths []string) {
	defer s.wg.Done()

	interval := time.Duration(float64(time.Second) / s.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	idx := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			img, err := decodeImageFile(paths[idx])
			idx = (idx + 1) % len(paths)
			if err != nil {
				continue // skip unreadable frames, keep looping
			}

			bounds := img.Bounds()
			frame := Frame{
				Seq:       atomic.AddUint64(&s.frameCounter, 1),
				Timestamp: time.Now(),
				Width:     bounds.Dx(),
				Height:    bounds.Dy(),
				Image:     img,
				TraceID:   uuid.New().String(),
			}

			// Non-blocking send: drop when the consumer lags.
			select {
			case s.frames <- frame:
			default:
			}
		}
	}
}

func (s *DirSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil

	if s.closed.CompareAndSwap(false, true) {
		close(s.frames)
	}
	return nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
