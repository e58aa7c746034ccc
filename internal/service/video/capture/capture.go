package capture

import (
	"fmt"
	"io"

	"eppdetect/internal/model"
	"eppdetect/internal/service/ai"
	"eppdetect/internal/service/video"

	"gocv.io/x/gocv"
)

// Codec used for processed videos.
const Codec = "mp4v"

// Source reads frames from a video file and re-encodes each one as JPEG.
type Source struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	fps     float64
	width   int
	height  int
}

// OpenSource opens path with OpenCV.
func OpenSource(path string) (*Source, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSourceOpen, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", model.ErrSourceOpen, path)
	}

	return &Source{
		capture: vc,
		frame:   gocv.NewMat(),
		fps:     vc.Get(gocv.VideoCaptureFPS),
		width:   int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// Read returns the next frame as JPEG bytes, or io.EOF at the end.
func (s *Source) Read() ([]byte, error) {
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, io.EOF
	}
	buf, err := gocv.IMEncode(".jpg", s.frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %v", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// FPS is the container frame rate; 0 when OpenCV cannot tell.
func (s *Source) FPS() float64 {
	if s.fps < 0 {
		return 0
	}
	return s.fps
}

// Size returns the frame dimensions.
func (s *Source) Size() (int, int) {
	return s.width, s.height
}

func (s *Source) Close() error {
	s.frame.Close()
	return s.capture.Close()
}

// Sink writes annotated frames to a video file.
type Sink struct {
	writer    *gocv.VideoWriter
	annotator ai.Annotator
}

// CreateSink opens a writer at path with the given geometry. A zero or
// unknown fps falls back to 25 for the output container.
func CreateSink(path string, fps float64, width, height int, annotator ai.Annotator) (*Sink, error) {
	if fps <= 0 {
		fps = 25
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid frame size %dx%d", model.ErrSinkCreate, width, height)
	}
	w, err := gocv.VideoWriterFile(path, Codec, fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSinkCreate, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("%w: %s", model.ErrSinkCreate, path)
	}
	return &Sink{writer: w, annotator: annotator}, nil
}

// Write annotates evaluated frames and appends every frame to the file.
func (s *Sink) Write(result video.FrameResult) error {
	data := result.Data
	if s.annotator != nil {
		annotated, err := s.annotator.AnnotateFrame(data, result.Detections, result.Evaluated, result.Compliant)
		if err != nil {
			return err
		}
		data = annotated
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("failed to decode frame %d: %v", result.Number, err)
	}
	defer mat.Close()
	return s.writer.Write(mat)
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

// Opener implements video.Opener on top of OpenCV.
type Opener struct {
	Annotator ai.Annotator
}

func (o Opener) Open(path string) (video.FrameSource, error) {
	return OpenSource(path)
}

func (o Opener) Create(path string, src video.FrameSource) (video.FrameSink, error) {
	sized, ok := src.(interface{ Size() (int, int) })
	if !ok {
		return nil, fmt.Errorf("%w: frame size of %T unknown", model.ErrSinkCreate, src)
	}
	width, height := sized.Size()
	return CreateSink(path, src.FPS(), width, height, o.Annotator)
}
