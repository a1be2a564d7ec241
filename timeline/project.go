package timeline

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"time"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/internal/event"
	"github.com/gogpu/nle/persist"
	"github.com/gogpu/nle/resource"
)

// Settings are the output format of a project.
type Settings struct {
	Width, Height int
	FrameRate     float64
	SampleRate    int
}

// DefaultSettings returns 1280x720 at 30 fps with 44.1 kHz audio.
func DefaultSettings() Settings {
	return Settings{Width: 1280, Height: 720, FrameRate: 30, SampleRate: 44100}
}

// Validate reports ErrInvalidSettings for a format that cannot render.
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 || !(s.FrameRate > 0) || math.IsInf(s.FrameRate, 0) || s.SampleRate <= 0 {
		return fmt.Errorf("%w: %dx%d @ %v fps, %d Hz", ErrInvalidSettings, s.Width, s.Height, s.FrameRate, s.SampleRate)
	}
	return nil
}

// Size returns the frame size.
func (s Settings) Size() image.Point { return image.Pt(s.Width, s.Height) }

// FrameTime converts a frame count to a duration.
func (s Settings) FrameTime(frames int64) time.Duration {
	return time.Duration(float64(frames) / s.FrameRate * float64(time.Second))
}

// FrameToSample returns the first audio sample of frame.
func (s Settings) FrameToSample(frame int64) int64 {
	return int64(math.Round(float64(frame) * float64(s.SampleRate) / s.FrameRate))
}

// SampleToFrame returns the frame containing audio sample i.
func (s Settings) SampleToFrame(i int64) int64 {
	return int64(math.Floor(float64(i) * s.FrameRate / float64(s.SampleRate)))
}

func (s Settings) writeTo(d *persist.Dict) {
	d.SetInt("Width", s.Width)
	d.SetInt("Height", s.Height)
	d.SetFloat64("FrameRate", s.FrameRate)
	d.SetInt("SampleRate", s.SampleRate)
}

func readSettings(d *persist.Dict) (Settings, error) {
	def := DefaultSettings()
	var s Settings
	var err error
	if s.Width, err = d.IntOr("Width", def.Width); err != nil {
		return s, err
	}
	if s.Height, err = d.IntOr("Height", def.Height); err != nil {
		return s, err
	}
	if s.FrameRate, err = d.Float64Or("FrameRate", def.FrameRate); err != nil {
		return s, err
	}
	if s.SampleRate, err = d.IntOr("SampleRate", def.SampleRate); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// Project owns the resources, registry and main timeline of one edit.
type Project struct {
	settings  Settings
	resources *resource.Store
	env       *Env
	timeline  *Timeline
	modified  bool

	modifiedChanged event.List[*Project]
}

// NewProject returns an empty project.
func NewProject(settings Settings) (*Project, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	store := resource.NewStore()
	p := &Project{settings: settings, resources: store, env: NewEnv(store)}
	p.timeline = NewTimeline(p.env)
	p.timeline.project = p
	return p, nil
}

// Settings returns the output format.
func (p *Project) Settings() Settings { return p.settings }

// SetSettings changes the output format.
func (p *Project) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if p.settings != s {
		p.settings = s
		p.timeline.InvalidateRender()
		p.SetModified(true)
	}
	return nil
}

// Resources returns the project's resource store.
func (p *Project) Resources() *resource.Store { return p.resources }

// Env returns the environment for creating clips, tracks and effects.
func (p *Project) Env() *Env { return p.env }

// Timeline returns the main timeline.
func (p *Project) Timeline() *Timeline { return p.timeline }

// IsModified reports unsaved changes.
func (p *Project) IsModified() bool { return p.modified }

// SetModified sets or clears the unsaved-changes flag.
func (p *Project) SetModified(modified bool) {
	if p.modified != modified {
		p.modified = modified
		p.modifiedChanged.Fire(p)
	}
}

// OnModifiedChanged registers fn for changes of the modified flag.
func (p *Project) OnModifiedChanged(fn func(*Project)) (remove func()) {
	return p.modifiedChanged.Add(fn)
}

// WriteTo stores the whole project.
func (p *Project) WriteTo(d *persist.Dict) error {
	p.settings.writeTo(d.CreateDict("Settings"))
	if err := p.resources.WriteTo(d.CreateDict("ResourceManager")); err != nil {
		return err
	}
	return p.timeline.WriteTo(d.CreateDict("Timeline"))
}

// ReadProject builds a project from a stored one.
func ReadProject(d *persist.Dict) (*Project, error) {
	settings := DefaultSettings()
	if sd, err := d.DictOr("Settings"); err != nil {
		return nil, err
	} else if sd != nil {
		if settings, err = readSettings(sd); err != nil {
			return nil, err
		}
	}
	p, err := NewProject(settings)
	if err != nil {
		return nil, err
	}
	if rd, err := d.DictOr("ResourceManager"); err != nil {
		return nil, err
	} else if rd != nil {
		if err := p.resources.ReadFrom(rd); err != nil {
			return nil, fmt.Errorf("timeline: read resources: %w", err)
		}
	}
	td, err := d.Dict("Timeline")
	if err != nil {
		return nil, fmt.Errorf("timeline: read project: %w", err)
	}
	if err := p.timeline.ReadFrom(td); err != nil {
		return nil, err
	}
	p.SetModified(false)
	return p, nil
}

// EncodeProject writes p as a YAML document.
func EncodeProject(w io.Writer, p *Project) error {
	d := persist.NewDict()
	if err := p.WriteTo(d); err != nil {
		return err
	}
	data, err := persist.MarshalYAML(d)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// DecodeProject reads a YAML project document.
func DecodeProject(r io.Reader) (*Project, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("timeline: read project: %w", err)
	}
	d, err := persist.UnmarshalYAML(data)
	if err != nil {
		return nil, err
	}
	return ReadProject(d)
}

// SaveProject writes p to path and clears its modified flag.
func SaveProject(path string, p *Project) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	if err := EncodeProject(f, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	p.SetModified(false)
	nle.Logger().Info("timeline: project saved", "path", path)
	return nil
}

// LoadProject reads the project at path.
func LoadProject(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	defer f.Close()
	p, err := DecodeProject(f)
	if err != nil {
		return nil, fmt.Errorf("timeline: load %s: %w", path, err)
	}
	nle.Logger().Info("timeline: project loaded", "path", path,
		"tracks", p.timeline.TrackCount(), "resources", p.resources.Len())
	return p, nil
}
