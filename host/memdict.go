// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package host

import (
	"bytes"
	"fmt"
)

// MemDict is an in-memory Dict, used by tests and by cmd/fneval in
// place of a real PDF/PostScript object graph.
type MemDict struct {
	Ints    map[string]int64
	Floats  map[string][]float64
	Names   map[string]string
	Dicts   map[string]*MemDict
	Arrays  map[string][]*MemDict
	Data    []byte
	Proc    Procedure
	hasProc bool
}

// NewMemDict returns an empty dictionary ready to be populated.
func NewMemDict() *MemDict {
	return &MemDict{
		Ints:   make(map[string]int64),
		Floats: make(map[string][]float64),
		Names:  make(map[string]string),
		Dicts:  make(map[string]*MemDict),
		Arrays: make(map[string][]*MemDict),
	}
}

func (d *MemDict) Int64(key string) (int64, bool) {
	v, ok := d.Ints[key]
	return v, ok
}

func (d *MemDict) Float64Array(key string) ([]float64, bool) {
	v, ok := d.Floats[key]
	return v, ok
}

func (d *MemDict) Name(key string) (string, bool) {
	v, ok := d.Names[key]
	return v, ok
}

func (d *MemDict) Dict(key string) (Dict, bool) {
	v, ok := d.Dicts[key]
	if !ok {
		return nil, false
	}
	return v, true
}

func (d *MemDict) DictArray(key string) ([]Dict, bool) {
	v, ok := d.Arrays[key]
	if !ok {
		return nil, false
	}
	out := make([]Dict, len(v))
	for i, sub := range v {
		out[i] = sub
	}
	return out, true
}

func (d *MemDict) Stream() (ByteSource, bool) {
	if d.Data == nil {
		return nil, false
	}
	return newMemStream(d.Data), true
}

func (d *MemDict) Procedure() (Procedure, bool) {
	if !d.hasProc {
		return nil, false
	}
	return d.Proc, true
}

// SetProcedure installs a Type 4 calculator procedure. Any Data stream
// is left in place and Stream still returns it.
func (d *MemDict) SetProcedure(p Procedure) {
	d.Proc = p
	d.hasProc = true
}

type memStream struct {
	buf *bytes.Reader
	src []byte
}

func newMemStream(b []byte) *memStream {
	return &memStream{buf: bytes.NewReader(b), src: b}
}

func (m *memStream) Read(p []byte) (int, error) { return m.buf.Read(p) }

func (m *memStream) Rewind() error {
	_, err := m.buf.Seek(0, 0)
	return err
}

func (m *memStream) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(m.src)) {
		return fmt.Errorf("host: seek position %d out of range [0,%d]", pos, len(m.src))
	}
	_, err := m.buf.Seek(pos, 0)
	return err
}
