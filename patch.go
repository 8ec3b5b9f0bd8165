package gridvoice

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Patch holds the startup parameters of the voice. The voice is fully
// ephemeral: nothing is persisted back, and every start begins from a Patch.
// Start from DefaultPatch; a YAML file can override individual fields via
// ReadPatch.
type Patch struct {
	SampleRate  int     `yaml:"samplerate"`
	CarrierHz   float32 `yaml:"carrier"`
	ModulatorHz float32 `yaml:"modulator"`
	Attack      float32 `yaml:"attack"`  // seconds
	Decay       float32 `yaml:"decay"`   // seconds
	Hold        float32 `yaml:"hold"`    // seconds
	Release     float32 `yaml:"release"` // seconds
	Sustain     float32 `yaml:"sustain"` // gain in [0,1]
	QueueSize   int     `yaml:"queuesize"`
}

func DefaultPatch() Patch {
	return Patch{
		SampleRate:  48000,
		CarrierHz:   110,
		ModulatorHz: 55,
		Attack:      0.1,
		Release:     0.9,
		Sustain:     1,
		QueueSize:   DefaultQueueCapacity,
	}
}

// ReadPatch reads a YAML patch from r, on top of the defaults: fields the
// file does not mention keep their DefaultPatch values.
func ReadPatch(r io.Reader) (Patch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Patch{}, fmt.Errorf("reading patch: %w", err)
	}
	p := DefaultPatch()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Patch{}, fmt.Errorf("parsing patch: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Patch{}, err
	}
	return p, nil
}

func (p Patch) Validate() error {
	if p.SampleRate <= 0 {
		return errors.New("sample rate should be > 0")
	}
	if p.CarrierHz < 0 || p.ModulatorHz < 0 {
		return errors.New("frequencies should be >= 0")
	}
	if p.Attack < 0 || p.Decay < 0 || p.Hold < 0 || p.Release < 0 {
		return errors.New("envelope times should be >= 0")
	}
	if p.Sustain < 0 || p.Sustain > 1 {
		return errors.New("sustain should be in [0,1]")
	}
	return nil
}
