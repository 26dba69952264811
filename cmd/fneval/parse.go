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

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/corefn/functions/fn"
	"github.com/corefn/functions/host"
)

// request is one line of input: a function dictionary plus the usage
// it's being unpacked for and the input vector to evaluate it at.
//
// encoding/json is used here only for this command's line-oriented
// input format; it is not part of fn/fncache's own surface, which
// consumes host.Dict regardless of serialisation.
type request struct {
	Usage string
	Dict  *host.MemDict
	Input []float64
}

type jsonDict struct {
	FunctionType int64               `json:"FunctionType"`
	Domain       []float64           `json:"Domain"`
	Range        []float64           `json:"Range"`
	Usage        string              `json:"Usage"`
	Input        []float64           `json:"Input"`
	Ints         map[string]int64    `json:"Ints"`
	Floats       map[string][]float64 `json:"Floats"`
	Names        map[string]string   `json:"Names"`
	Functions    []jsonDict          `json:"Functions"`
	Bounds       []float64           `json:"Bounds"`
	Encode       []float64           `json:"Encode"`
	Size         []float64           `json:"Size"`
	BitsPerSample int64              `json:"BitsPerSample"`
	DataHex      string              `json:"DataHex"`
}

func parseRequest(line []byte) (*request, error) {
	var jd jsonDict
	if err := json.Unmarshal(line, &jd); err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}
	d := toMemDict(jd)
	return &request{Usage: jd.Usage, Dict: d, Input: jd.Input}, nil
}

func toMemDict(jd jsonDict) *host.MemDict {
	d := host.NewMemDict()
	d.Ints["FunctionType"] = jd.FunctionType
	if jd.Domain != nil {
		d.Floats["Domain"] = jd.Domain
	}
	if jd.Range != nil {
		d.Floats["Range"] = jd.Range
	}
	if jd.Bounds != nil {
		d.Floats["Bounds"] = jd.Bounds
	}
	if jd.Encode != nil {
		d.Floats["Encode"] = jd.Encode
	}
	if jd.Size != nil {
		d.Floats["Size"] = jd.Size
	}
	if jd.BitsPerSample != 0 {
		d.Ints["BitsPerSample"] = jd.BitsPerSample
	}
	for k, v := range jd.Ints {
		d.Ints[k] = v
	}
	for k, v := range jd.Floats {
		d.Floats[k] = v
	}
	for k, v := range jd.Names {
		d.Names[k] = v
	}
	if len(jd.Functions) > 0 {
		subs := make([]*host.MemDict, len(jd.Functions))
		for i, sub := range jd.Functions {
			subs[i] = toMemDict(sub)
		}
		d.Arrays["Functions"] = subs
	}
	if jd.DataHex != "" {
		if data, err := hex.DecodeString(jd.DataHex); err == nil {
			d.Data = data
		}
	}
	return d
}

func usageFromName(name string) (fn.Usage, error) {
	switch name {
	case "", "eval-operator":
		return fn.UsageEvalOperator, nil
	case "halftone":
		return fn.UsageHalftone, nil
	case "black-gen":
		return fn.UsageBlackGen, nil
	case "ucr":
		return fn.UsageUCR, nil
	case "transfer":
		return fn.UsageTransfer, nil
	case "spot":
		return fn.UsageSpot, nil
	case "shading":
		return fn.UsageShading, nil
	case "shading-opacity":
		return fn.UsageShadingOpacity, nil
	case "cie-tint":
		return fn.UsageCIETint, nil
	case "tint":
		return fn.UsageTint, nil
	case "softmask":
		return fn.UsageSoftMask, nil
	default:
		return fn.UsageEvalOperator, fmt.Errorf("unknown usage %q", name)
	}
}

func marshalResult(out []float64) ([]byte, error) {
	return json.Marshal(struct {
		Output []float64 `json:"Output"`
	}{Output: out})
}

