// Package output renders command results as text, JSON, or the result of a
// jq filter over the JSON.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
)

// Options controls how results are written.
type Options struct {
	JSON bool
	// JQ is a jq program applied to the JSON form of every result. It
	// implies JSON.
	JQ     string
	Writer io.Writer
}

// Writer prints command results.
type Writer struct {
	opts Options
	jq   *gojq.Code
}

// New validates the jq program and returns a Writer.
func New(opts Options) (*Writer, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	w := &Writer{opts: opts}
	if opts.JQ != "" {
		q, err := gojq.Parse(opts.JQ)
		if err != nil {
			return nil, ErrUsage(fmt.Sprintf("invalid --jq expression: %v", err))
		}
		code, err := gojq.Compile(q)
		if err != nil {
			return nil, ErrUsage(fmt.Sprintf("invalid --jq expression: %v", err))
		}
		w.jq = code
	}
	return w, nil
}

// Machine reports whether results are written as JSON.
func (w *Writer) Machine() bool {
	return w.opts.JSON || w.jq != nil
}

// Out is the underlying writer.
func (w *Writer) Out() io.Writer { return w.opts.Writer }

// Print writes data. In text mode text renders it; a nil text falls back to
// JSON.
func (w *Writer) Print(data any, text func(io.Writer) error) error {
	switch {
	case w.jq != nil:
		return w.filter(data)
	case w.opts.JSON || text == nil:
		return w.writeJSON(data)
	default:
		return text(w.opts.Writer)
	}
}

// Err writes the error envelope in JSON mode. In text mode it does nothing
// and the caller prints the error.
func (w *Writer) Err(err error) error {
	if !w.Machine() {
		return nil
	}
	e := AsError(err)
	return w.writeJSON(map[string]any{
		"ok":    false,
		"error": e.Message,
		"code":  e.Code,
		"hint":  e.Hint,
	})
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.opts.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// filter runs the jq program over data. String results are printed raw,
// like jq -r; everything else as compact JSON.
func (w *Writer) filter(data any) error {
	input, err := normalize(data)
	if err != nil {
		return err
	}
	iter := w.jq.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return fmt.Errorf("jq: %w", err)
		}
		if s, ok := v.(string); ok {
			fmt.Fprintln(w.opts.Writer, s)
			continue
		}
		b, err := gojq.Marshal(v)
		if err != nil {
			return fmt.Errorf("jq: %w", err)
		}
		fmt.Fprintln(w.opts.Writer, string(b))
	}
}

// normalize turns structs and raw JSON into the plain maps, slices and
// float64s gojq operates on.
func normalize(data any) (any, error) {
	var raw []byte
	switch d := data.(type) {
	case json.RawMessage:
		raw = d
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		raw = b
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return v, nil
}
