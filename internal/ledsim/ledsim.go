// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledsim renders the two status LEDs to the terminal using ANSI
// color codes, for dry-run mode on a machine with no real LED hardware
// attached. It is adapted from the teacher's screen1d package (a "1D LED
// strip emulator... useful while you are waiting for your LED strip to come
// by mail"), narrowed from an arbitrary-length strip to exactly the two
// fixed pixels (green, red) the flight control core drives.
package ledsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

var (
	litGreen = color.NRGBA{G: 255, A: 255}
	litRed   = color.NRGBA{R: 255, A: 255}
	unlit    = color.NRGBA{R: 32, G: 32, B: 32, A: 255}
)

// Console is a two-pixel terminal emulator for the green and red status
// LEDs. It is safe to Set from multiple goroutines.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	palette ansi256.Palette
	green   bool
	red     bool
	buf     bytes.Buffer
}

// NewConsole returns a Console writing to a colorable stdout. IsTerminal
// reports whether the underlying file descriptor is actually a terminal, so
// callers can fall back to a plain logger when output is redirected to a
// file or pipe (ANSI escapes would otherwise corrupt the log).
func NewConsole() *Console {
	return &Console{
		w:       colorable.NewColorableStdout(),
		palette: *ansi256.Default,
	}
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// GreenPixel returns a led.Output that drives the green pixel.
func (c *Console) GreenPixel() *pixel { return &pixel{console: c, isGreen: true} }

// RedPixel returns a led.Output that drives the red pixel.
func (c *Console) RedPixel() *pixel { return &pixel{console: c, isGreen: false} }

func (c *Console) set(green bool, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if green {
		c.green = on
	} else {
		c.red = on
	}
	c.refresh()
}

func (c *Console) refresh() {
	c.buf.Reset()
	c.buf.WriteString("\r\033[0m")

	greenColor := unlit
	if c.green {
		greenColor = litGreen
	}
	redColor := unlit
	if c.red {
		redColor = litRed
	}
	c.buf.WriteString(c.palette.Block(greenColor))
	c.buf.WriteString(c.palette.Block(redColor))
	c.buf.WriteString("\033[0m ")
	fmt.Fprint(c.w, c.buf.String())
}

// pixel adapts one of Console's two LEDs to led.Output.
type pixel struct {
	console *Console
	isGreen bool
}

func (p *pixel) Set(on bool) error {
	p.console.set(p.isGreen, on)
	return nil
}
