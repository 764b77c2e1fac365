package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/classgate/kiosk/internal/constants"
)

// DeviceSource captures frames from a V4L2 webcam through a GStreamer
// pipeline (v4l2src → videoconvert → videoscale → videorate → appsink).
type DeviceSource struct {
	device string
	width  int
	height int
	fps    float64

	mu       sync.Mutex
	pipeline *gst.Pipeline
	frames   chan Frame
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	frameCounter  uint64
	framesDropped uint64
	closed        atomic.Bool
}

// NewDeviceSource creates a webcam source with fail-fast validation.
func NewDeviceSource(device string, width, height int, fps float64) (*DeviceSource, error) {
	if device == "" {
		return nil, fmt.Errorf("%w: no device path configured", ErrNotFound)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("camera: invalid resolution %dx%d", width, height)
	}
	if fps < 0.1 || fps > 30 {
		return nil, fmt.Errorf("camera: invalid FPS %.2f (must be 0.1-30)", fps)
	}
	return &DeviceSource{device: device, width: width, height: height, fps: fps}, nil
}

// checkDevice classifies device-node problems before GStreamer touches them,
// so callers get a precise cause instead of a generic pipeline error.
func (s *DeviceSource) checkDevice() error {
	if _, err := os.Stat(s.device); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, s.device)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", ErrPermission, s.device)
		}
		return fmt.Errorf("camera: cannot access %s: %w", s.device, err)
	}
	return nil
}

// framerateFraction renders the target FPS as a GStreamer caps fraction.
func framerateFraction(fps float64) string {
	if fps >= 1 {
		return fmt.Sprintf("%d/1", int(fps))
	}
	return fmt.Sprintf("1/%d", int(1/fps))
}

func (s *DeviceSource) buildPipeline() (*gst.Pipeline, *app.Sink, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", s.device)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videoscale: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)
	videorate.SetProperty("skip-to-first", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsStr := fmt.Sprintf("video/x-raw,format=RGB,width=%d,height=%d,framerate=%s",
		s.width, s.height, framerateFraction(s.fps))
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // no clock sync, deliver immediately
	appsink.SetProperty("max-buffers", 1) // keep only the latest frame
	appsink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, scaler, videorate, capsfilter, appsink.Element)
	if err := gst.ElementLinkMany(src, converter, scaler, videorate, capsfilter, appsink.Element); err != nil {
		return nil, nil, fmt.Errorf("failed to link pipeline: %w", err)
	}

	return pipeline, appsink, nil
}

// onNewSample pulls a frame from the appsink, converts the RGB buffer into
// an image, and forwards it without blocking.
func (s *DeviceSource) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) < s.width*s.height*3 {
		buffer.Unmap()
		slog.Warn("camera: short buffer received", "size", len(data))
		return gst.FlowOK
	}
	img := rgbToImage(data, s.width, s.height)
	buffer.Unmap()

	frame := Frame{
		Seq:       atomic.AddUint64(&s.frameCounter, 1),
		Timestamp: time.Now(),
		Width:     s.width,
		Height:    s.height,
		Image:     img,
		TraceID:   uuid.New().String(),
	}

	select {
	case s.frames <- frame:
	default:
		atomic.AddUint64(&s.framesDropped, 1)
	}
	return gst.FlowOK
}

func (s *DeviceSource) Start(ctx context.Context) (<-chan Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, fmt.Errorf("camera: source already started")
	}
	if err := s.checkDevice(); err != nil {
		return nil, err
	}

	pipeline, appsink, err := s.buildPipeline()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.pipeline = pipeline
	s.cancel = cancel
	s.frames = make(chan Frame, constants.FrameChannelBuffer)
	s.closed.Store(false)

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		cancel()
		s.cancel = nil
		s.pipeline = nil
		return nil, fmt.Errorf("camera: failed to start pipeline: %w", wrapGstError(err))
	}

	s.wg.Add(1)
	go s.monitorBus(ctx)

	slog.Info("camera: device source started",
		"device", s.device,
		"resolution", fmt.Sprintf("%dx%d", s.width, s.height),
		"fps", s.fps,
	)
	return s.frames, nil
}

// monitorBus watches the pipeline bus for errors and end-of-stream until the
// source is stopped.
func (s *DeviceSource) monitorBus(ctx context.Context) {
	defer s.wg.Done()

	bus := s.pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}
			switch msg.Type() {
			case gst.MessageEOS:
				slog.Warn("camera: end of stream",
					"device", s.device,
					"frames", atomic.LoadUint64(&s.frameCounter),
				)
				return
			case gst.MessageError:
				gerr := msg.ParseError()
				slog.Error("camera: pipeline error", "device", s.device, "error", gerr.Error())
			}
		}
	}
}

func (s *DeviceSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.wg.Wait()

	if err := s.pipeline.SetState(gst.StateNull); err != nil {
		slog.Warn("camera: failed to stop pipeline", "error", err)
	}
	s.pipeline = nil
	s.cancel = nil

	if s.closed.CompareAndSwap(false, true) {
		close(s.frames)
	}

	slog.Info("camera: device source stopped",
		"device", s.device,
		"frames", atomic.LoadUint64(&s.frameCounter),
		"dropped", atomic.LoadUint64(&s.framesDropped),
	)
	return nil
}

// wrapGstError attaches a camera sentinel to GStreamer start errors so the
// controller can classify them.
func wrapGstError(err error) error {
	switch Classify(err) {
	case CausePermission:
		return fmt.Errorf("%w: %v", ErrPermission, err)
	case CauseNotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case CauseBusy:
		return fmt.Errorf("%w: %v", ErrBusy, err)
	default:
		return err
	}
}

// rgbToImage converts a packed RGB buffer into an RGBA image.
func rgbToImage(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := (y*width + x) * 3
			dst := img.PixOffset(x, y)
			img.Pix[dst+0] = data[src+0]
			img.Pix[dst+1] = data[src+1]
			img.Pix[dst+2] = data[src+2]
			img.Pix[dst+3] = 0xff
		}
	}
	return img
}
