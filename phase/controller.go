// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package phase

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/srp-avionics/flightcore/altimetry"
	"github.com/srp-avionics/flightcore/autosave"
	"github.com/srp-avionics/flightcore/led"
	"github.com/srp-avionics/flightcore/sampler"
	"github.com/srp-avionics/flightcore/internal/stopflag"
)

// ErrWorkerLost is returned by Run if a sampler or autosave goroutine exits
// (by panicking or by returning) before the stop flag was asserted. spec.md
// §7 treats this as fatal: the controller proceeds straight to the landing
// handler, then Run returns this error so main exits non-zero.
var ErrWorkerLost = errors.New("phase: a worker task terminated unexpectedly")

// Inputs is the discrete GPIO read side of the hardware contract (spec.md
// §6): every method already has the pin's active-low/active-high polarity
// resolved by the caller's implementation.
type Inputs interface {
	BatteryFull() (bool, error)
	SensorsPresent() (bool, error)
	ArmSwitchOn() (bool, error)
	LiftoffSignal() (bool, error)
}

// Outputs is the discrete GPIO write side plus the OS shutdown collaborator.
type Outputs interface {
	VoteDeploy() error
	Shutdown() error
}

// Config holds the timing and flight-logic parameters of spec.md §6 that
// the controller itself needs (pin numbers and sensor intervals live in the
// components that own those concerns).
type Config struct {
	StateIntervals               map[Phase]time.Duration
	BlinkHalfPeriod               time.Duration
	MinDeployTime                 time.Duration
	MinFlightDuration             time.Duration
	VVDeployThreshold             float64
	LandingAltitudeRange          float64
	LandingVerticalVelocityRange  float64
	NCalib                        int
	BaroInterval                  time.Duration
}

func (c Config) interval(p Phase) time.Duration {
	if d, ok := c.StateIntervals[p]; ok && d > 0 {
		return d
	}
	return 100 * time.Millisecond
}

// Controller runs the control loop described in spec.md §4.6.
type Controller struct {
	cfg  Config
	in   Inputs
	out  Outputs
	leds *led.Blinker
	alt  *altimetry.Estimator

	baroRaw   func() (int32, error)
	samplers  []*sampler.Task
	autosaves []*autosave.Task
	// finalFlush persists every ring's remaining tail with a final trailer
	// row, after every worker has been joined.
	finalFlush func() error

	stop *stopflag.Flag
	log  *log.Logger
	now  func() time.Time

	phase             Phase
	flightStart       time.Time
	armedTasksStarted bool
	deployVoted       bool

	wg sync.WaitGroup
	// workerLost receives one error per sampler/autosave goroutine that
	// exits (by panic or by returning) before stop was asserted. Buffered
	// to the worker count so reportWorkerLost never blocks even if several
	// workers die in the same instant; Tick drains it with a non-blocking
	// select on every call.
	workerLost chan error
}

// New builds a Controller starting in SYSTEMS_CHECK.
func New(
	cfg Config,
	in Inputs,
	out Outputs,
	leds *led.Blinker,
	alt *altimetry.Estimator,
	baroRaw func() (int32, error),
	samplers []*sampler.Task,
	autosaves []*autosave.Task,
	finalFlush func() error,
	stop *stopflag.Flag,
	logger *log.Logger,
) *Controller {
	workerCount := len(samplers) + len(autosaves)
	if workerCount == 0 {
		workerCount = 1
	}
	return &Controller{
		cfg:        cfg,
		in:         in,
		out:        out,
		leds:       leds,
		alt:        alt,
		baroRaw:    baroRaw,
		samplers:   samplers,
		autosaves:  autosaves,
		finalFlush: finalFlush,
		stop:       stop,
		log:        logger,
		phase:      SystemsCheck,
		now:        time.Now,
		workerLost: make(chan error, workerCount),
	}
}

// Phase reports the controller's current phase. Safe to call between ticks
// only (it is not synchronized against a concurrently running Tick).
func (c *Controller) Phase() Phase { return c.phase }

// DeployVoted reports whether the deploy vote has been asserted this run.
func (c *Controller) DeployVoted() bool { return c.deployVoted }

// Run executes the control loop until it reaches LANDED with the arm switch
// off and the shutdown sequence has been issued, or a fatal error occurs.
func (c *Controller) Run() error {
	for {
		start := c.now()
		exit, err := c.Tick()
		if err != nil {
			return err
		}
		if exit {
			return nil
		}
		if d := c.cfg.interval(c.phase) - c.now().Sub(start); d > 0 {
			time.Sleep(d)
		}
	}
}

// Tick evaluates exactly one control-loop iteration and returns (true, nil)
// once the process should exit cleanly.
func (c *Controller) Tick() (bool, error) {
	if err := c.checkWorkers(); err != nil {
		return false, err
	}

	c.log.Printf("phase=%s", c.phase)
	switch c.phase {
	case SystemsCheck:
		return false, c.tickSystemsCheck()
	case ErrorPhase:
		return false, c.tickError()
	case Idle:
		return false, c.tickIdle()
	case Armed:
		return false, c.tickArmed()
	case Launched:
		return false, c.tickLaunched()
	case Deployed:
		return false, c.tickDeployed()
	case Landed:
		return c.tickLanded()
	default:
		c.phase = ErrorPhase
		return false, nil
	}
}

func (c *Controller) checksPass() (bool, error) {
	battery, err := c.in.BatteryFull()
	if err != nil {
		return false, fmt.Errorf("phase: battery check: %w", err)
	}
	sensors, err := c.in.SensorsPresent()
	if err != nil {
		return false, fmt.Errorf("phase: sensor presence check: %w", err)
	}
	return battery && sensors, nil
}

func (c *Controller) tickSystemsCheck() error {
	ok, err := c.checksPass()
	if err != nil {
		return err
	}
	if ok {
		c.leds.Apply(led.PatternIdle, c.cfg.BlinkHalfPeriod)
		c.phase = Idle
	} else {
		c.leds.Apply(led.PatternError, c.cfg.BlinkHalfPeriod)
		c.phase = ErrorPhase
	}
	return nil
}

func (c *Controller) tickError() error {
	c.leds.Apply(led.PatternError, c.cfg.BlinkHalfPeriod)
	ok, err := c.checksPass()
	if err != nil {
		return err
	}
	if ok {
		c.leds.Apply(led.PatternIdle, c.cfg.BlinkHalfPeriod)
		c.phase = Idle
	}
	return nil
}

func (c *Controller) tickIdle() error {
	c.leds.Apply(led.PatternIdle, c.cfg.BlinkHalfPeriod)
	armed, err := c.in.ArmSwitchOn()
	if err != nil {
		return fmt.Errorf("phase: arm switch check: %w", err)
	}
	if armed {
		c.phase = Armed
	}
	return nil
}

func (c *Controller) tickArmed() error {
	if !c.armedTasksStarted {
		c.leds.Apply(led.PatternArmedCalibrating, c.cfg.BlinkHalfPeriod)
		if err := c.alt.Calibrate(c.cfg.NCalib, c.cfg.BaroInterval, c.baroRaw); err != nil {
			return fmt.Errorf("phase: calibration: %w", err)
		}
		c.startWorkers()
		c.armedTasksStarted = true
		c.leds.Apply(led.PatternArmedRunning, c.cfg.BlinkHalfPeriod)
	}

	armed, err := c.in.ArmSwitchOn()
	if err != nil {
		return fmt.Errorf("phase: arm switch check: %w", err)
	}
	if !armed {
		c.leds.Apply(led.PatternIdle, c.cfg.BlinkHalfPeriod)
		c.phase = Idle
		return nil
	}

	liftoff, err := c.in.LiftoffSignal()
	if err != nil {
		return fmt.Errorf("phase: liftoff check: %w", err)
	}
	if liftoff {
		c.flightStart = c.now()
		c.leds.Apply(led.PatternLaunchedAlternate, c.cfg.BlinkHalfPeriod)
		c.phase = Launched
	}
	return nil
}

// startWorkers launches every sampler and autosave goroutine exactly once.
// Per spec.md §9's resolved open question, sampler tasks are start-once and
// calibration is idempotent after the first run: re-entering ARMED after an
// IDLE round-trip does not recalibrate or restart them.
func (c *Controller) startWorkers() {
	for _, s := range c.samplers {
		s := s
		c.wg.Add(1)
		go c.runWorker(fmt.Sprintf("sampler %s", s.Spec.Name), s.Run)
	}
	for _, a := range c.autosaves {
		a := a
		c.wg.Add(1)
		go c.runWorker(fmt.Sprintf("autosave %s", a.SensorName), a.Run)
	}
}

// runWorker runs fn to completion, recovering a panic rather than letting it
// crash the process, then reports fn's exit as lost (spec.md §7,
// WorkerLost) unless stop was already asserted at the time it returned —
// the expected way every sampler/autosave Run loop exits.
func (c *Controller) runWorker(name string, fn func()) {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			c.reportWorkerLost(fmt.Errorf("%s: panicked: %v", name, r))
			return
		}
		if !c.stop.IsSet() {
			c.reportWorkerLost(fmt.Errorf("%s: exited before stop was asserted", name))
		}
	}()
	fn()
}

// reportWorkerLost is non-blocking: workerLost is sized to never need to
// drop a report in practice, but a worker must never be able to wedge on a
// send no one is reading yet.
func (c *Controller) reportWorkerLost(err error) {
	select {
	case c.workerLost <- err:
	default:
		c.log.Printf("phase: workerLost channel full, dropping: %v", err)
	}
}

// checkWorkers drains one pending worker-loss report, if any, and drives the
// controller straight to the landing handler per spec.md §7's WorkerLost
// resolution ("treat as fatal, proceed directly to the landing handler").
func (c *Controller) checkWorkers() error {
	select {
	case werr := <-c.workerLost:
		c.log.Printf("phase: %v: %v", ErrWorkerLost, werr)
		if err := c.handleLanding(); err != nil {
			c.log.Printf("phase: landing handler after worker loss: %v", err)
		}
		c.leds.Apply(led.PatternLanded, c.cfg.BlinkHalfPeriod)
		c.phase = Landed
		return fmt.Errorf("%w: %v", ErrWorkerLost, werr)
	default:
		return nil
	}
}

func (c *Controller) tickLaunched() error {
	armed, err := c.in.ArmSwitchOn()
	if err != nil {
		return fmt.Errorf("phase: arm switch check: %w", err)
	}

	now := c.now()
	snap := c.alt.Latest()

	deployCond := snap.Valid &&
		now.After(c.flightStart.Add(c.cfg.MinDeployTime)) &&
		snap.VV < c.cfg.VVDeployThreshold
	landingCond := c.landingPredicate(now, snap) || !armed

	// Tie-break (spec.md §4.6): if both conditions hold in the same tick,
	// deploy takes precedence; landing is reconsidered on a later tick.
	switch {
	case deployCond:
		if err := c.out.VoteDeploy(); err != nil {
			return fmt.Errorf("phase: deploy vote: %w", err)
		}
		c.deployVoted = true
		c.leds.Apply(led.PatternDeployed, c.cfg.BlinkHalfPeriod)
		c.phase = Deployed
	case landingCond:
		if err := c.handleLanding(); err != nil {
			return err
		}
		c.leds.Apply(led.PatternLanded, c.cfg.BlinkHalfPeriod)
		c.phase = Landed
	}
	return nil
}

func (c *Controller) tickDeployed() error {
	armed, err := c.in.ArmSwitchOn()
	if err != nil {
		return fmt.Errorf("phase: arm switch check: %w", err)
	}
	now := c.now()
	snap := c.alt.Latest()

	if c.landingPredicate(now, snap) || !armed {
		if err := c.handleLanding(); err != nil {
			return err
		}
		c.leds.Apply(led.PatternLanded, c.cfg.BlinkHalfPeriod)
		c.phase = Landed
	}
	return nil
}

// landingPredicate implements spec.md §4.6's definition exactly: it does
// NOT include the arm-switch-off disjunct, which callers OR in separately
// (the transition table lists them as two distinct conditions joined by ∨).
func (c *Controller) landingPredicate(now time.Time, snap altimetry.Snapshot) bool {
	if !snap.Valid {
		return false
	}
	if !now.After(c.flightStart.Add(c.cfg.MinFlightDuration)) {
		return false
	}
	return math.Abs(snap.Alt) < c.cfg.LandingAltitudeRange &&
		math.Abs(snap.VV) < c.cfg.LandingVerticalVelocityRange
}

// handleLanding waits to capture the touchdown transient, asserts stop,
// joins every worker, then flushes every ring's final tail. Order matters:
// flushing before every worker has returned would race the last append.
func (c *Controller) handleLanding() error {
	c.log.Printf("phase: landing detected, waiting to capture touchdown transient")
	time.Sleep(2 * time.Second)

	c.stop.Assert()
	c.wg.Wait()

	if c.finalFlush == nil {
		return nil
	}
	if err := c.finalFlush(); err != nil {
		c.log.Printf("phase: final flush: %v", err)
	}
	return nil
}

func (c *Controller) tickLanded() (bool, error) {
	c.leds.Apply(led.PatternLanded, c.cfg.BlinkHalfPeriod)
	armed, err := c.in.ArmSwitchOn()
	if err != nil {
		return false, fmt.Errorf("phase: arm switch check: %w", err)
	}
	if !armed {
		c.log.Printf("phase: arm switch off in LANDED, shutting down")
		time.Sleep(time.Second)
		if err := c.out.Shutdown(); err != nil {
			return false, fmt.Errorf("phase: shutdown: %w", err)
		}
		return true, nil
	}
	return false, nil
}
