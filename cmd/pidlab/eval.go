package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/pidlab/internal/config"
	"github.com/san-kum/pidlab/internal/pid"
)

// eval keeps its own gains: the loop commands share kp/ti/td and only read
// them when the flag was set.
var evalGains config.GainsConfig

func evalRows(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	c := pid.New(evalGains.Kp, evalGains.Ti, evalGains.Td)
	return evalStream(in, os.Stdout, &c)
}

// evalStream feeds each "error,dt" record of r through c and writes
// "tick,error,dt,output,integral" rows to w. A header row and blank lines
// are skipped. NaN and Inf are accepted as values.
func evalStream(r io.Reader, w io.Writer, c *pid.Controller) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	out := csv.NewWriter(w)
	if err := out.Write([]string{"tick", "error", "dt", "output", "integral"}); err != nil {
		return err
	}

	tick := 0
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if len(record) < 2 {
			return fmt.Errorf("line %d: want error,dt, got %d fields", line, len(record))
		}

		e, errE := parseValue(record[0])
		dt, errDt := parseValue(record[1])
		if errE != nil || errDt != nil {
			if line == 1 {
				continue
			}
			return fmt.Errorf("line %d: %w", line, errors.Join(errE, errDt))
		}

		output := c.Calculate(e, dt)
		tick++
		err = out.Write([]string{
			strconv.Itoa(tick),
			formatValue(e),
			formatValue(dt),
			formatValue(output),
			formatValue(c.Integral()),
		})
		if err != nil {
			return err
		}
	}

	out.Flush()
	return out.Error()
}

func parseValue(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
