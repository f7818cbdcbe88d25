package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/ricochet/audio"
	"github.com/lixenwraith/ricochet/core"
	"github.com/lixenwraith/ricochet/engine"
	"github.com/lixenwraith/ricochet/fx"
	"github.com/lixenwraith/ricochet/music"
	"github.com/lixenwraith/ricochet/network"
	"github.com/lixenwraith/ricochet/parameter"
	"github.com/lixenwraith/ricochet/patch"
	"github.com/lixenwraith/ricochet/preset"
	"github.com/lixenwraith/ricochet/service"
	"github.com/lixenwraith/ricochet/state"
	"github.com/lixenwraith/ricochet/view"
)

var (
	debugFlag   = flag.Bool("debug", false, "Write a debug log to logs/ricochet.log")
	configFlag  = flag.String("config", "", "TOML file with the startup state")
	seedFlag    = flag.Uint64("seed", 0, "Random seed; 0 picks one from the clock")
	presetsFlag = flag.String("presets", parameter.PresetDir, "Preset slot directory")
	recordFlag  = flag.String("recordings", parameter.RecordDir, "Directory for captured takes")
	mutedFlag   = flag.Bool("muted", false, "Start with audio muted")
	renderFlag  = flag.Duration("render", 0, "Render this much audio offline to -out and exit")
	outFlag     = flag.String("out", "ricochet.wav", "WAV file written by -render")
	listenFlag  = flag.String("listen", "", "Address for remote analyzers and controllers, e.g. 127.0.0.1:7777")
)

// instrument is the audio and simulation core shared by interactive and offline runs
type instrument struct {
	global   *state.Store
	visual   *state.VisualStore
	voices   *audio.Engine
	rack     *patch.Rack
	graph    *fx.Graph
	sim      *engine.Instrument
	control  *engine.ControlLoop
	recorder *audio.Recorder
	tap      *music.TapTempo
}

func newInstrument(g state.Global, cfg *audio.AudioConfig, seed uint64, maxTake time.Duration) (*instrument, error) {
	sr := float64(cfg.SampleRate)

	bank := audio.NewBank(sr, seed)
	if cfg.SampleDir != "" {
		n, err := bank.LoadDir(cfg.SampleDir)
		if err != nil {
			log.Printf("sample dir %s: %v", cfg.SampleDir, err)
		}
		log.Printf("loaded %d samples from %s", n, cfg.SampleDir)
	}

	voices := audio.NewEngine(audio.EngineConfig{SampleRate: sr, Polyphony: cfg.Polyphony, Seed: seed, Bank: bank})
	rack := patch.NewRack(g.Physics.BodyCount, bank)

	graph, err := fx.NewGraph(fx.Config{
		SampleRate: sr,
		Tempo:      g.Tempo,
		DroneFreqs: engine.DroneFreqs(g.RootKey, g.Scale),
		Seed:       seed,
	}, voices.Bus())
	if err != nil {
		return nil, fmt.Errorf("effects graph: %w", err)
	}

	recorder := audio.NewRecorder(sr, maxTake)
	graph.SetTap(recorder)

	global := state.NewStore(g)
	visual := state.NewVisualStore(parameter.VisualStaleAfter)

	sim, err := engine.NewInstrument(engine.Config{Global: global, Visual: visual, Rack: rack, Voices: voices, Seed: seed})
	if err != nil {
		return nil, err
	}

	return &instrument{
		global:   global,
		visual:   visual,
		voices:   voices,
		rack:     rack,
		graph:    graph,
		sim:      sim,
		control:  engine.NewControlLoop(graph, global, visual, seed),
		recorder: recorder,
		tap:      music.NewTapTempo(g.Tempo),
	}, nil
}

func main() {
	flag.Parse()

	if logFile := setupLogging(*debugFlag); logFile != nil {
		defer logFile.Close()
	}

	g, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	audioCfg := audio.LoadAudioConfig()
	if os.Getenv(audio.EnvMasterVolume) != "" {
		g.Volume = audioCfg.MasterVolume
	}

	seed := *seedFlag
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Printf("seed %d, %s %s, %.1f bpm", seed, music.NoteName(g.RootKey), g.Scale, g.Tempo)

	if *renderFlag > 0 {
		inst, err := newInstrument(g, audioCfg, seed, *renderFlag+time.Second)
		if err == nil {
			err = renderOffline(inst, *renderFlag, *outFlag)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s (%s)\n", *outFlag, *renderFlag)
		return
	}

	inst, err := newInstrument(g, audioCfg, seed, parameter.MaxRecording)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := run(inst, audioCfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run opens the terminal, starts the services and drives the display loop until quit
func run(inst *instrument, audioCfg *audio.AudioConfig) error {
	// Panic recovery for the main goroutine
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	screen.EnableMouse()
	core.SetCrashFinalizer(screen)
	defer func() {
		core.SetCrashFinalizer(nil)
		screen.Fini()
	}()

	output := audio.NewOutput(audioCfg, inst.graph)
	clock := engine.NewClockScheduler("clock", parameter.SimTickInterval, func() { inst.sim.Tick() }, "audio")
	control := engine.NewClockScheduler("control", parameter.FrameUpdateInterval, inst.control.Step, "audio")

	remote := network.NewService(&network.ControlSink{
		Global:  inst.global,
		Visual:  inst.visual,
		Tempo:   inst.tap,
		Impacts: inst.sim.Impacts,
	})

	services := service.NewManager()
	for _, svc := range []service.Service{output, clock, control, remote} {
		if err := services.Register(svc); err != nil {
			return err
		}
	}
	initArgs := map[string][]any{
		"audio":   {*mutedFlag},
		"network": {network.DefaultConfig(*listenFlag)},
	}
	if err := services.InitAll(initArgs); err != nil {
		return fmt.Errorf("init services: %w", err)
	}
	if err := services.StartAll(); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	log.Printf("services started: %v", services.Order())
	defer func() {
		if err := services.StopAll(); err != nil {
			log.Printf("stop services: %v", err)
		}
	}()

	presets, err := preset.NewStore(*presetsFlag, parameter.PresetSlots)
	if err != nil {
		log.Printf("presets disabled: %v", err)
	}

	renderer := view.NewRenderer(screen)
	controller := view.NewController(view.Controls{
		Global:     inst.global,
		Visual:     inst.visual,
		Rack:       inst.rack,
		Instrument: inst.sim,
		Tap:        inst.tap,
		Presets:    presets,
		Recorder:   inst.recorder,
		Output:     output,
		RecordDir:  *recordFlag,
		Renderer:   renderer,
	})

	eventChan := make(chan tcell.Event, 256)
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			// Nil after Fini
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	})

	frameTicker := time.NewTicker(parameter.FrameUpdateInterval)
	defer frameTicker.Stop()

	for {
		select {
		case ev := <-eventChan:
			if !controller.Handle(ev) {
				controller.Close()
				return nil
			}

		case <-frameTicker.C:
			controller.Refresh()
			hud := controller.HUD()
			hud.Silent = output.IsSilent()
			hud.Ceiling = inst.voices.Bus().Ceiling()
			hud.Peak = inst.graph.Peak()
			renderer.Draw(inst.sim.Frame(), inst.control.Last(), hud)
		}
	}
}

var errNothingRendered = errors.New("render produced no audio")

// renderOffline steps the simulation and pulls the graph in lockstep, then writes a WAV
func renderOffline(inst *instrument, d time.Duration, path string) error {
	sr := inst.voices.SampleRate()
	ticks := int(d / parameter.SimTickInterval)
	perTick := sr / parameter.SimTickRate

	inst.recorder.Start()
	var due float64
	rendered := 0
	for i := 0; i < ticks; i++ {
		inst.sim.Tick()
		inst.control.Advance(parameter.SimTickInterval)

		due += perTick
		n := int(due) - rendered
		inst.graph.Render(n)
		rendered += n
	}
	inst.recorder.Stop()

	if inst.recorder.Len() == 0 {
		return errNothingRendered
	}
	log.Printf("rendered %d frames, %d impacts, stats %+v", rendered, inst.sim.Impacts(), inst.voices.Stats())
	return inst.recorder.SaveWAV(path)
}
