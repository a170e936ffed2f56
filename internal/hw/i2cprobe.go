// Copyright 2026 The Flightcore Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hw

import (
	"periph.io/x/conn/v3/i2c"
)

// Prober answers "is a device at address A responding" for a fixed set of
// addresses, generalizing the original flight software's i2cdetect-and-grep
// sensor presence check into a direct bus probe.
type Prober struct {
	bus       i2c.Bus
	addresses []uint16
}

// NewProber returns a Prober that considers sensors present only when every
// address in addresses acknowledges a one-byte read.
func NewProber(bus i2c.Bus, addresses []uint16) *Prober {
	return &Prober{bus: bus, addresses: addresses}
}

// SensorsPresent implements phase.Inputs. It probes every configured address
// and returns true only if all of them respond.
func (p *Prober) SensorsPresent() (bool, error) {
	for _, addr := range p.addresses {
		dev := &i2c.Dev{Addr: addr, Bus: p.bus}
		if err := dev.Tx(nil, make([]byte, 1)); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// Inputs composes a Board's discrete GPIO reads with a Prober's I²C presence
// check into the full phase.Inputs contract.
type Inputs struct {
	*Board
	*Prober
}
