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

// Command fneval reads newline-delimited JSON function-evaluation
// requests and writes one JSON result per line -- a standalone
// front end for fn for testing and scripting, in place of a real
// PDF/PostScript interpreter. Each line is unpacked and validated
// afresh; no fncache is used.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/corefn/functions/fn"
)

func main() {
	upwards := flag.Bool("upwards", true, "evaluation bias direction")
	flag.Parse()

	o := bufio.NewWriter(os.Stdout)
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}
	for _, arg := range args {
		var in *os.File
		var err error
		if arg == "-" {
			in = os.Stdin
		} else {
			in, err = os.Open(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "can't open %q: %s\n", arg, err)
				os.Exit(1)
			}
		}
		if err := runFile(in, o, *upwards); err != nil {
			fmt.Fprintf(os.Stderr, "input %s: %s\n", arg, err)
			os.Exit(1)
		}
	}
	if err := o.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFile(in *os.File, o *bufio.Writer, upwards bool) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		res, err := evalLine(line, upwards)
		if err != nil {
			fmt.Fprintf(o, "{\"line\":%d,\"error\":%q}\n", lineNo, err.Error())
			continue
		}
		if _, err := o.Write(res); err != nil {
			return err
		}
		if err := o.WriteByte('\n'); err != nil {
			return err
		}
	}
	return sc.Err()
}

func evalLine(line []byte, upwards bool) ([]byte, error) {
	req, err := parseRequest(line)
	if err != nil {
		return nil, err
	}
	usage, err := usageFromName(req.Usage)
	if err != nil {
		return nil, err
	}
	f, err := fn.Unpack(req.Dict, usage)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}
	if err := fn.Validate(f, nil); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	out := make([]float64, f.N)
	if err := f.Evaluate(req.Input, out, upwards); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return marshalResult(out)
}
