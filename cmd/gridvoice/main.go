package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"time"

	"github.com/gridvoice/gridvoice"
	"github.com/gridvoice/gridvoice/gomidi"
	"github.com/gridvoice/gridvoice/oto"
	"github.com/gridvoice/gridvoice/version"
)

var (
	patchFile   = flag.String("patch", "", "load startup parameters from YAML `file`")
	midiInput   = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
	listMidi    = flag.Bool("list-midi", false, "list MIDI input devices and exit")
	meter       = flag.Duration("meter", 0, "log the output level at this interval (0 = off)")
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to `file`")
	versionFlag = flag.Bool("v", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		return
	}
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}
	logger := slog.Default()

	patch := gridvoice.DefaultPatch()
	if *patchFile != "" {
		f, err := os.Open(*patchFile)
		if err != nil {
			logger.Error("could not open patch file", "error", err)
			os.Exit(1)
		}
		patch, err = gridvoice.ReadPatch(f)
		f.Close()
		if err != nil {
			logger.Error("could not read patch file", "file", *patchFile, "error", err)
			os.Exit(1)
		}
	}

	controller := gomidi.New()
	defer controller.Close()
	if *listMidi {
		controller.InputDevices(func(name string) bool {
			fmt.Println(name)
			return true
		})
		return
	}
	// a missing controller is not fatal: the voice free-runs on its patch
	// defaults and the device can be reconnected on the next start
	if err := controller.OpenByPrefix(*midiInput); err != nil {
		logger.Warn("midi: no controller connected", "error", err)
	} else {
		logger.Info("midi: controller connected")
	}

	audioContext, err := oto.NewContext(patch.SampleRate)
	if err != nil {
		logger.Error("audio device initialization failed", "error", err)
		os.Exit(1)
	}
	defer audioContext.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	clock := &gridvoice.SampleClock{}
	updates := gridvoice.NewUpdateQueue(patch.QueueSize)
	voice := gridvoice.NewVoice(patch, clock, updates)
	monitor := gridvoice.NewMonitor(patch.SampleRate)
	voice.SetMonitor(monitor)
	go monitor.Run(ctx)

	loop := gridvoice.NewControlLoop(controller, updates, logger)
	go loop.Run(ctx, patch)

	stream := audioContext.Play(voice.Render)
	logger.Info("stream started", "samplerate", patch.SampleRate)

	if *meter > 0 {
		go meterLoop(ctx, logger, monitor, clock, *meter)
	}

	<-ctx.Done()
	if err := stream.Close(); err != nil {
		logger.Error("closing stream failed", "error", err)
	}
	logger.Info("stream stopped", "frames", clock.Frames())
}

func meterLoop(ctx context.Context, logger *slog.Logger, monitor *gridvoice.Monitor, clock *gridvoice.SampleClock, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			level := monitor.Level()
			logger.Info("output level",
				"left_db", fmt.Sprintf("%.1f", level[0]),
				"right_db", fmt.Sprintf("%.1f", level[1]),
				"frames", clock.Frames())
		}
	}
}
