package renderer

import (
	"time"

	"github.com/achilleasa/vtkshot/log"
	"github.com/achilleasa/vtkshot/scene"
	"github.com/achilleasa/vtkshot/vtk"
)

// Snapshotter renders datasets off-screen and writes the captured frames as
// PNG images.
type Snapshotter struct {
	logger   log.Logger
	opts     Options
	renderer Renderer
	stats    FrameStats
}

// Create a snapshotter that uses the default renderer.
func NewSnapshotter(opts Options) (*Snapshotter, error) {
	r, err := NewDefault(opts)
	if err != nil {
		return nil, err
	}
	return &Snapshotter{
		logger:   log.New("snapshot"),
		opts:     opts,
		renderer: r,
	}, nil
}

// Render the dataset and write the captured frame to outputPath, replacing
// any existing file.
func (s *Snapshotter) Snapshot(ds vtk.Dataset, outputPath string) error {
	start := time.Now()
	sc, err := scene.New(ds, scene.Options{
		Width:     int(s.opts.FrameW),
		Height:    int(s.opts.FrameH),
		Azimuth:   s.opts.Azimuth,
		Elevation: s.opts.Elevation,
		AutoRange: s.opts.AutoRange,
	})
	if err != nil {
		return err
	}
	sceneTime := time.Since(start)
	s.logger.Debugf("scene: %s", sc.Stats())

	img, err := s.renderer.Render(sc)
	if err != nil {
		return err
	}

	start = time.Now()
	if err = WritePNG(outputPath, img); err != nil {
		return err
	}

	stats := s.renderer.Stats()
	stats.SceneTime = sceneTime
	stats.WriteTime = time.Since(start)
	s.stats = stats

	s.logger.Infof(`wrote %dx%d frame to "%s" in %d ms`, stats.FrameW, stats.FrameH, outputPath, stats.WriteTime.Nanoseconds()/1e6)
	return nil
}

// Get the statistics of the last snapshot.
func (s *Snapshotter) Stats() FrameStats {
	return s.stats
}
