// Command nlerender renders a frame range of a project to PNG images and a
// WAV soundtrack.
//
// Usage:
//
//	nlerender -project edit.yaml -out frames -from 0 -frames 250
//	nlerender -demo -save demo.yaml -out frames
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/automation"
	"github.com/gogpu/nle/engine"
	"github.com/gogpu/nle/render"
	"github.com/gogpu/nle/resource"
	"github.com/gogpu/nle/timeline"
)

func main() {
	var (
		project    = flag.String("project", "", "project file (YAML)")
		demo       = flag.Bool("demo", false, "render a built-in demo project")
		save       = flag.String("save", "", "also write the project to this file")
		out        = flag.String("out", "out", "output directory")
		from       = flag.Int64("from", 0, "first frame")
		frames     = flag.Int64("frames", 0, "frame count; 0 renders to the end of the last clip")
		workers    = flag.Int("workers", 0, "render workers; 0 uses GOMAXPROCS")
		quality    = flag.String("quality", "high", "filter quality: none, low, medium or high")
		sampleRate = flag.Int("sample-rate", 0, "output sample rate; 0 keeps the project's")
		bits       = flag.Int("bits", 16, "WAV bit depth")
		noAudio    = flag.Bool("no-audio", false, "skip the soundtrack")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	nle.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	q, ok := render.ParseFilterQuality(*quality)
	if !ok {
		log.Fatalf("unknown quality %q", *quality)
	}

	var p *timeline.Project
	var err error
	switch {
	case *demo:
		p, err = demoProject()
	case *project != "":
		p, err = timeline.LoadProject(*project)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Failed to load project: %v", err)
	}
	if *save != "" {
		if err := timeline.SaveProject(*save, p); err != nil {
			log.Fatalf("Failed to save project: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	count := *frames
	if count <= 0 {
		count = p.Timeline().LargestFrameInUse() - *from
	}
	span, err := timeline.NewFrameSpan(*from, max(count, 0))
	if err != nil {
		log.Fatalf("Invalid range: %v", err)
	}

	loop := engine.NewLoop()
	defer loop.Close()
	m := engine.NewManager(p, loop,
		engine.WithWorkers(*workers),
		engine.WithFilterQuality(q),
		engine.WithSampleRate(*sampleRate))
	defer m.Close()

	e := engine.NewExporter(m, *out)
	e.BitDepth = *bits
	e.NoAudio = *noAudio
	e.Progress = progress(span.Duration)

	res, err := e.Export(ctx, span)
	if err != nil {
		stop()
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Fprintln(os.Stderr)
	log.Printf("Rendered %d frames (%d samples) to %s in %v\n", res.Frames, res.Samples, *out, res.Elapsed.Round(time.Millisecond))
}

// progress prints a single updating status line.
func progress(total int64) func(done, total int64) {
	last := time.Time{}
	return func(done, _ int64) {
		if now := time.Now(); done == total || now.Sub(last) > 100*time.Millisecond {
			last = now
			fmt.Fprintf(os.Stderr, "\rframe %d/%d", done, total)
		}
	}
}

// demoProject builds four seconds of a moving box over a background with a
// timecode and a tone.
func demoProject() (*timeline.Project, error) {
	p, err := timeline.NewProject(timeline.Settings{Width: 640, Height: 360, FrameRate: 25, SampleRate: 48000})
	if err != nil {
		return nil, err
	}
	res := p.Resources()
	for key, v := range map[string]any{
		"background": mustColour("#1d2b53"),
		"accent":     mustColour("#ffa300"),
		"tone":       resource.NewTone(48000, 2, 440, 0.25, 4*time.Second),
	} {
		if err := res.Register(key, v); err != nil {
			return nil, err
		}
	}
	whole := timeline.FrameSpan{Begin: 0, Duration: 100}
	env := p.Env()
	tl := p.Timeline()

	bg := timeline.NewShapeClip(env)
	bg.SetColourKey("background")
	box := timeline.NewShapeClip(env)
	box.SetColourKey("accent")
	tc := timeline.NewTimecodeClip(env)
	for _, c := range []timeline.Clip{bg, box, tc} {
		if err := c.SetSpan(whole); err != nil {
			return nil, err
		}
	}
	if err := bg.AutomationData().SetDefault(timeline.KeyShapeSize, automation.Vec2(automation.V2(640, 360))); err != nil {
		return nil, err
	}
	if err := box.AutomationData().SetDefault(timeline.KeyShapeSize, automation.Vec2(automation.V2(80, 80))); err != nil {
		return nil, err
	}
	seq, err := box.AutomationData().SequenceByKey(timeline.KeyClipMediaPosition)
	if err != nil {
		return nil, err
	}
	for _, k := range []*automation.KeyFrame{
		automation.NewKeyFrame(0, automation.Vec2(automation.V2(40, 140))),
		automation.NewKeyFrame(99, automation.Vec2(automation.V2(520, 140))),
	} {
		if _, err := seq.AddKeyFrame(k); err != nil {
			return nil, err
		}
	}

	fx := timeline.NewMotionEffect(env, box.ID())
	if err := fx.AutomationData().SetDefault(timeline.KeyMotionRotation, automation.Double(15)); err != nil {
		return nil, err
	}
	if err := box.AddEffect(fx); err != nil {
		return nil, err
	}

	audioClip := timeline.NewAudioClip(env)
	audioClip.SetSourceKey("tone")
	if err := audioClip.SetSpan(whole); err != nil {
		return nil, err
	}

	for _, c := range []timeline.Clip{bg, box, tc} {
		vt := timeline.NewVideoTrack(env)
		if err := tl.AddTrack(vt); err != nil {
			return nil, err
		}
		if err := vt.AddClip(c); err != nil {
			return nil, err
		}
	}
	at := timeline.NewAudioTrack(env)
	if err := tl.AddTrack(at); err != nil {
		return nil, err
	}
	if err := at.AddClip(audioClip); err != nil {
		return nil, err
	}
	return p, nil
}

func mustColour(s string) any {
	c, err := resource.ParseColour(s)
	if err != nil {
		panic(err)
	}
	return c
}
