// Package export writes step response reports as CSV, JSON and PNG.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/stepviz/internal/experiment"
	"github.com/san-kum/stepviz/internal/lti"
	"github.com/san-kum/stepviz/internal/metrics"
)

// WriteCSV writes a time,output header followed by one row per sample.
func WriteCSV(w io.Writer, resp lti.Response) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "output"}); err != nil {
		return err
	}
	for i := range resp.Times {
		row := []string{
			strconv.FormatFloat(resp.Times[i], 'f', 6, 64),
			strconv.FormatFloat(resp.Output[i], 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type document struct {
	ID       string             `json:"id"`
	Options  experiment.Options `json:"options"`
	Num      []float64          `json:"num"`
	Den      []float64          `json:"den"`
	Display  string             `json:"transfer_function"`
	Poles    [][2]float64       `json:"poles"`
	Stable   bool               `json:"stable"`
	Metrics  metrics.Result     `json:"metrics"`
	Summary  []string           `json:"summary,omitempty"`
	Response lti.Response       `json:"response"`
}

// WriteJSON writes the report as indented JSON. Undefined metrics are null
// and poles are [re, im] pairs.
func WriteJSON(w io.Writer, report *experiment.Report) error {
	if report == nil {
		return fmt.Errorf("export: nil report")
	}
	doc := document{
		ID:       report.ID,
		Options:  report.Options,
		Num:      report.TransferFunction.Num,
		Den:      report.TransferFunction.Den,
		Display:  report.TransferFunction.String(),
		Poles:    make([][2]float64, len(report.Poles)),
		Stable:   report.Stable,
		Metrics:  report.Metrics,
		Response: report.Response,
	}
	for i, p := range report.Poles {
		doc.Poles[i] = [2]float64{real(p), imag(p)}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Paths lists the files written by Dir.
type Paths struct {
	CSV  string
	JSON string
	PNG  string
}

// Dir writes <prefix>.csv, .json and .png under dir, creating it if needed.
// The prefix is the system type and the first block of the report ID.
func Dir(dir string, report *experiment.Report, width, height float64) (Paths, error) {
	if report == nil {
		return Paths{}, fmt.Errorf("export: nil report")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("cannot create directory: %w", err)
	}

	prefix := filepath.Join(dir, "step-"+report.Options.System+"-"+shortID(report.ID))
	paths := Paths{
		CSV:  prefix + ".csv",
		JSON: prefix + ".json",
		PNG:  prefix + ".png",
	}

	if err := writeFile(paths.CSV, func(w io.Writer) error { return WriteCSV(w, report.Response) }); err != nil {
		return Paths{}, err
	}
	if err := writeFile(paths.JSON, func(w io.Writer) error { return WriteJSON(w, report) }); err != nil {
		return Paths{}, err
	}
	if err := writeFile(paths.PNG, func(w io.Writer) error { return WritePNG(w, report, width, height) }); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "report"
	}
	return id
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return fmt.Errorf("cannot write %s: %w", filepath.Base(path), err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}
