package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"eppdetect/internal/config"
	"eppdetect/internal/dto"
	"eppdetect/internal/logger"
	"eppdetect/internal/metrics"
	"eppdetect/internal/model"
	"eppdetect/internal/repository"
	"eppdetect/internal/service/ai"
	"eppdetect/internal/service/compliance"
	"eppdetect/internal/service/media"
	"eppdetect/internal/service/report"
	"eppdetect/internal/service/session"
	"eppdetect/internal/service/storage"
	"eppdetect/internal/service/video"
	"eppdetect/internal/service/websocket"
)

const queueSize = 100

// Dependencies are the collaborators of a Manager. Detectors holds one
// detector per camera worker; the first one also serves uploads.
type Dependencies struct {
	Detectors []ai.Detector
	Annotator ai.Annotator
	Opener    video.Opener
	Buffer    *storage.BufferService
	Videos    repository.VideoRepository
	Session   *session.Context
	Hub       *websocket.HubService
	Metrics   *metrics.Metrics
}

// ImageResult is the outcome of one image analysis.
type ImageResult struct {
	Verdict   model.ComplianceVerdict
	Filename  string
	Thumbnail string
}

// VideoResult is the outcome of one video analysis.
type VideoResult struct {
	Report   model.VideoReport
	Filename string
	RecordID int64
}

type cameraTask struct {
	frame  []byte
	camera string
	number int
}

// cameraMonitor is the running report of one live camera.
type cameraMonitor struct {
	tally *video.Tally

	mu       sync.Mutex
	recordID int64
	unsaved  []model.ViolationEvent
}

// Manager runs image, video and live camera analyses.
type Manager struct {
	detectors []ai.Detector
	annotator ai.Annotator
	opener    video.Opener
	evaluator *compliance.Evaluator
	buffer    *storage.BufferService
	videoRepo repository.VideoRepository
	session   *session.Context
	hub       *websocket.HubService
	metrics   *metrics.Metrics
	logger    *logger.Logger

	videoStride   int
	positional    bool
	flushInterval time.Duration

	processingQueue chan cameraTask
	frameCounters   map[string]int // Frames received per camera
	processEveryNth int
	numWorkers      int
	frameCounterMu  sync.Mutex

	cameras   map[string]*cameraMonitor
	camerasMu sync.RWMutex

	wg      sync.WaitGroup
	stopMu  sync.RWMutex
	stopped bool
}

// NewManager creates a Manager and starts one camera worker per detector.
func NewManager(config *config.Config, logger *logger.Logger, deps Dependencies) (*Manager, error) {
	if len(deps.Detectors) == 0 {
		return nil, errors.New("at least one detector is required")
	}
	if deps.Session == nil {
		deps.Session = session.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Hub == nil {
		deps.Hub = websocket.NewHubService(logger)
	}

	policy := compliance.DefaultPolicy()
	policy.Threshold = config.OverlapThreshold
	policy.StrictMarkers = config.StrictMarkers

	interval := time.Duration(config.FlushInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	every := config.ProcessingInterval
	if every < 1 {
		every = 1
	}

	m := &Manager{
		detectors:       deps.Detectors,
		annotator:       deps.Annotator,
		opener:          deps.Opener,
		evaluator:       compliance.NewEvaluator(policy),
		buffer:          deps.Buffer,
		videoRepo:       deps.Videos,
		session:         deps.Session,
		hub:             deps.Hub,
		metrics:         deps.Metrics,
		logger:          logger,
		videoStride:     config.VideoStride,
		positional:      config.PositionalSummary,
		flushInterval:   interval,
		processingQueue: make(chan cameraTask, queueSize),
		frameCounters:   make(map[string]int),
		processEveryNth: every,
		numWorkers:      len(deps.Detectors),
		cameras:         make(map[string]*cameraMonitor),
	}

	for i := 0; i < m.numWorkers; i++ {
		m.wg.Add(1)
		go m.processingWorker(i)
	}

	m.logger.Info("🎬 Manager started - %d worker(s), processing every %d camera frame(s)", m.numWorkers, m.processEveryNth)
	return m, nil
}

// Session returns the last-analysis context.
func (m *Manager) Session() *session.Context { return m.session }

// Hub returns the viewer hub.
func (m *Manager) Hub() *websocket.HubService { return m.hub }

// Buffer returns the media and analysis buffer.
func (m *Manager) Buffer() *storage.BufferService { return m.buffer }

// Metrics returns the metrics registry.
func (m *Manager) Metrics() *metrics.Metrics { return m.metrics }

// Policy returns the compliance policy in use.
func (m *Manager) Policy() compliance.Policy { return m.evaluator.Policy() }

// AnalyzeImage detects and evaluates one uploaded image, stores the annotated
// result and makes the verdict the current session analysis.
func (m *Manager) AnalyzeImage(ctx context.Context, source string, data []byte) (*ImageResult, error) {
	start := time.Now()

	normalized, err := media.Normalize(data)
	if err != nil {
		m.metrics.RejectedUploads.Add(1)
		return nil, model.NewStageError(model.StageDecode, source, err)
	}

	detections, err := m.detectors[0].Detect(ctx, normalized)
	if err != nil {
		m.metrics.DetectionErrors.Add(1)
		return nil, model.NewStageError(model.StageDetect, source, asDetectionError(err))
	}

	verdict := m.evaluator.Evaluate(source, detections)
	m.session.Set(verdict)

	annotated := normalized
	if m.annotator != nil {
		if drawn, err := m.annotator.AnnotateImage(normalized, verdict); err != nil {
			m.logger.Warning("Failed to annotate %s: %v", source, err)
		} else {
			annotated = drawn
		}
	}

	result := &ImageResult{Verdict: verdict}
	if m.buffer != nil {
		filename, thumbnail, err := m.buffer.SaveImage(annotated, ".jpg")
		if err != nil {
			return nil, model.NewStageError(model.StagePersist, source, err)
		}
		path, _ := m.buffer.ImagePath(filename)
		m.buffer.AddAnalysis(dto.PendingAnalysis{
			Timestamp: time.Now(),
			Verdict:   verdict,
			Filename:  filename,
			FilePath:  path,
			FileSize:  int64(len(annotated)),
		})
		result.Filename = filename
		result.Thumbnail = thumbnail
	}

	m.metrics.ImagesAnalyzed.Add(1)
	m.metrics.PersonsEvaluated.Add(uint64(verdict.TotalPersons))
	m.metrics.PersonsCompliant.Add(uint64(verdict.Summary.Compliant))
	m.metrics.UpdateAnalysisLatency(time.Since(start))

	m.hub.Publish(websocket.EventVerdict, "", report.Summarize(verdict))
	m.logger.Info("Image %s analyzed: %d persons, %d compliant, %d detections",
		source, verdict.TotalPersons, verdict.Summary.Compliant, verdict.TotalDetections)
	return result, nil
}

// AnalyzeVideo runs the count-based analysis over the video at path and
// writes an annotated copy. stride < 1 uses the configured stride. Open and
// output failures are returned before any frame is read; later failures end
// in a truncated report and no error.
func (m *Manager) AnalyzeVideo(ctx context.Context, source, path string, stride int) (*VideoResult, error) {
	if stride < 1 {
		stride = m.videoStride
	}
	if m.opener == nil {
		return nil, model.NewStageError(model.StageOpen, source, fmt.Errorf("%w: video backend unavailable", model.ErrSourceOpen))
	}

	src, err := m.opener.Open(path)
	if err != nil {
		return nil, model.NewStageError(model.StageOpen, source, wrapSentinel(err, model.ErrSourceOpen))
	}
	defer src.Close()

	var (
		filename string
		sink     video.FrameSink
	)
	if m.buffer != nil {
		var outPath string
		filename, outPath, err = m.buffer.VideoPath(".mp4")
		if err != nil {
			return nil, model.NewStageError(model.StageOutput, source, wrapSentinel(err, model.ErrSinkCreate))
		}
		sink, err = m.opener.Create(outPath, src)
		if err != nil {
			return nil, model.NewStageError(model.StageOutput, source, wrapSentinel(err, model.ErrSinkCreate))
		}
	}

	aggregator := video.NewAggregator(m.detectors[0], m.evaluator.Policy(), stride, m.logger).WithPositional(m.positional)
	rep := aggregator.Analyze(ctx, source, src, sink)

	if sink != nil {
		if err := sink.Close(); err != nil {
			m.logger.Warning("Failed to finalize output video %s: %v", filename, err)
		}
	}

	m.recordFrames(rep.FramesRead, rep.FramesProcessed, rep.CompliantFrames, len(rep.Violations))
	m.metrics.VideosAnalyzed.Add(1)
	if rep.Truncated {
		m.metrics.VideosTruncated.Add(1)
	}

	result := &VideoResult{Report: rep, Filename: filename}
	record := model.NewVideoRecord(rep, filename, time.Now())
	if m.videoRepo != nil {
		id, err := m.videoRepo.Save(record, rep.Violations)
		if err != nil {
			m.logger.Error("Error saving video report %s: %v", source, err)
		} else {
			record.ID = id
			result.RecordID = id
		}
	}

	m.hub.Publish(websocket.EventVideo, "", record)
	return result, nil
}

// HandleCameraFrame forwards a live frame to viewers and queues every Nth
// frame of the camera for detection. Frames are dropped when the queue is full.
func (m *Manager) HandleCameraFrame(frame []byte, camera string) {
	m.hub.Publish(websocket.EventFrame, camera, frame)

	m.frameCounterMu.Lock()
	m.frameCounters[camera]++
	n := m.frameCounters[camera]
	m.frameCounterMu.Unlock()

	monitor := m.monitor(camera)
	monitor.tally.FrameRead(n)
	m.metrics.FramesRead.Add(1)

	if n%m.processEveryNth != 0 {
		return
	}

	m.stopMu.RLock()
	defer m.stopMu.RUnlock()
	if m.stopped {
		return
	}

	select {
	case m.processingQueue <- cameraTask{frame: frame, camera: camera, number: n}:
		m.logger.Debug("📹 Camera %s: frame %d queued for processing", camera, n)
	default:
		m.metrics.FramesDropped.Add(1)
		m.logger.Warning("⚠️  Processing queue full for camera %s - skipping frame %d", camera, n)
	}
}

func (m *Manager) monitor(camera string) *cameraMonitor {
	m.camerasMu.RLock()
	mon, ok := m.cameras[camera]
	m.camerasMu.RUnlock()
	if ok {
		return mon
	}

	m.camerasMu.Lock()
	defer m.camerasMu.Unlock()
	if mon, ok = m.cameras[camera]; ok {
		return mon
	}
	// Live cameras carry no frame rate, so event timestamps stay at 0.
	mon = &cameraMonitor{tally: video.NewTally(camera, 0, m.processEveryNth, m.evaluator.Policy())}
	m.cameras[camera] = mon
	return mon
}

// processingWorker evaluates queued camera frames with its own detector.
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("🔧 Processing worker %d started", workerID)
	for task := range m.processingQueue {
		m.processCameraFrame(task, workerID)
	}
	m.logger.Info("🔧 Processing worker %d stopped", workerID)
}

func (m *Manager) processCameraFrame(task cameraTask, workerID int) {
	detections, err := m.detectors[workerID].Detect(context.Background(), task.frame)
	if err != nil {
		m.metrics.DetectionErrors.Add(1)
		m.logger.Error("Detection failed for camera %s frame %d: %v", task.camera, task.number, err)
		return
	}

	monitor := m.monitor(task.camera)
	out := monitor.tally.Observe(task.number, detections)
	compliant := 0
	if out.Compliant {
		compliant = 1
	}
	m.recordFrames(0, 1, compliant, 0)

	if out.Violation == nil {
		return
	}
	m.metrics.ViolationEvents.Add(1)

	monitor.mu.Lock()
	monitor.unsaved = append(monitor.unsaved, *out.Violation)
	monitor.mu.Unlock()

	m.hub.Publish(websocket.EventViolation, task.camera, out.Violation)
	m.logger.Warning("🚨 Camera %s frame %d: %d person(s) without full equipment", task.camera, task.number, out.Violation.PersonCount)

	m.storeViolationFrame(task, detections)
}

// storeViolationFrame keeps the annotated frame of a violation in the gallery.
func (m *Manager) storeViolationFrame(task cameraTask, detections []model.Detection) {
	if m.buffer == nil {
		return
	}
	verdict := m.evaluator.Evaluate(task.camera, detections)

	frame := task.frame
	if m.annotator != nil {
		if drawn, err := m.annotator.AnnotateImage(task.frame, verdict); err != nil {
			m.logger.Warning("Failed to annotate camera %s frame %d: %v", task.camera, task.number, err)
		} else {
			frame = drawn
		}
	}

	filename, _, err := m.buffer.SaveImage(frame, ".jpg")
	if err != nil {
		m.logger.Error("Failed to save violation frame of camera %s: %v", task.camera, err)
		return
	}
	path, _ := m.buffer.ImagePath(filename)
	m.buffer.AddAnalysis(dto.PendingAnalysis{
		Timestamp: time.Now(),
		Verdict:   verdict,
		Filename:  filename,
		FilePath:  path,
		FileSize:  int64(len(frame)),
	})
}

func (m *Manager) recordFrames(read, evaluated, compliant, violations int) {
	m.metrics.FramesRead.Add(uint64(read))
	m.metrics.FramesEvaluated.Add(uint64(evaluated))
	m.metrics.FramesCompliant.Add(uint64(compliant))
	m.metrics.ViolationEvents.Add(uint64(violations))
}

// CameraReport returns the running report of a live camera.
func (m *Manager) CameraReport(camera string) (model.VideoReport, bool) {
	m.camerasMu.RLock()
	mon, ok := m.cameras[camera]
	m.camerasMu.RUnlock()
	if !ok {
		return model.VideoReport{}, false
	}
	return mon.tally.Report(), true
}

// Cameras lists the cameras that sent at least one frame.
func (m *Manager) Cameras() []string {
	m.camerasMu.RLock()
	defer m.camerasMu.RUnlock()
	ids := make([]string, 0, len(m.cameras))
	for id := range m.cameras {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PersistCameraReports stores the running report of every camera together
// with the violations recorded since the previous call.
func (m *Manager) PersistCameraReports() {
	if m.videoRepo == nil {
		return
	}
	for _, camera := range m.Cameras() {
		m.camerasMu.RLock()
		mon := m.cameras[camera]
		m.camerasMu.RUnlock()

		mon.mu.Lock()
		record := model.NewVideoRecord(mon.tally.Report(), "", time.Now())
		record.ID = mon.recordID
		pending := mon.unsaved
		id, err := m.videoRepo.Save(record, pending)
		if err != nil {
			m.logger.Error("Error saving report of camera %s: %v", camera, err)
		} else {
			mon.recordID = id
			mon.unsaved = nil
		}
		mon.mu.Unlock()
	}
}

// Run persists camera reports periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.PersistCameraReports()
		case <-ctx.Done():
			return
		}
	}
}

// Stop drains the camera workers, stores the final camera reports and
// closes the detectors. Frames handled afterwards are only forwarded to viewers.
func (m *Manager) Stop() {
	m.stopMu.Lock()
	if m.stopped {
		m.stopMu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.stopMu.Unlock()

	m.wg.Wait()
	m.PersistCameraReports()
	for _, d := range m.detectors {
		if err := d.Close(); err != nil {
			m.logger.Warning("Failed to close detector: %v", err)
		}
	}
	m.logger.Info("🛑 All processing workers stopped")
}

func asDetectionError(err error) error {
	return wrapSentinel(err, model.ErrDetection)
}

func wrapSentinel(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
