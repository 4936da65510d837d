package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
)

// canvas stands in for a plot renderer whose drawing code can panic on
// input it did not expect.
type canvas struct {
	glyphs []string
}

func (c *canvas) drawLegend(entry int) error {
	_ = c.glyphs[entry]
	return nil
}

func (c *canvas) save(path string) error {
	if path == "" {
		panic("vgimg: no output format for empty path")
	}
	return nil
}

func TestSafeExecuteRendererPanic(t *testing.T) {
	tests := []struct {
		name      string
		render    func(c *canvas) error
		wantValue string
		runtime   bool
	}{
		{
			name:      "legend index out of range",
			render:    func(c *canvas) error { return c.drawLegend(3) },
			wantValue: "index out of range",
			runtime:   true,
		},
		{
			name:      "save without format",
			render:    func(c *canvas) error { return c.save("") },
			wantValue: "no output format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &canvas{glyphs: []string{"ROC"}}
			err := SafeExecute("visualize.PlotROC", func() error { return tt.render(c) })

			if !IsPanic(err) {
				t.Fatalf("IsPanic(%v) = false, want true", err)
			}
			var pe *PanicError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PanicError, got %T", err)
			}
			if pe.Operation != "visualize.PlotROC" {
				t.Errorf("Operation = %q, want visualize.PlotROC", pe.Operation)
			}
			if !strings.Contains(fmt.Sprint(pe.PanicValue), tt.wantValue) {
				t.Errorf("PanicValue = %v, want it to mention %q", pe.PanicValue, tt.wantValue)
			}
			if _, ok := pe.PanicValue.(runtime.Error); ok != tt.runtime {
				t.Errorf("PanicValue is runtime.Error = %v, want %v", ok, tt.runtime)
			}
			if pe.StackTrace == "" {
				t.Error("StackTrace should be captured")
			}
			if !strings.HasPrefix(err.Error(), "panic in visualize.PlotROC: ") {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestSafeExecuteRendererOutcomes(t *testing.T) {
	errNoFont := fmt.Errorf("font cache empty")

	tests := []struct {
		name    string
		fn      func() error
		want    error
		isPanic bool
	}{
		{"renders", func() error { return (&canvas{glyphs: []string{"ROC"}}).drawLegend(0) }, nil, false},
		{"returns error", func() error { return errNoFont }, errNoFont, false},
		{"panics", func() error { panic("no font") }, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("render", tt.fn)
			if got := IsPanic(err); got != tt.isPanic {
				t.Errorf("IsPanic(%v) = %v, want %v", err, got, tt.isPanic)
			}
			if !tt.isPanic && err != tt.want {
				t.Errorf("SafeExecute() = %v, want %v", err, tt.want)
			}
		})
	}
	if IsPanic(fmt.Errorf("plain")) {
		t.Error("IsPanic(plain error) = true, want false")
	}
}

func TestRecoverKeepsEarlierError(t *testing.T) {
	encodeErr := fmt.Errorf("png encode failed")

	plot := func() (err error) {
		defer Recover(&err, "visualize.Save")
		err = encodeErr
		panic("canvas released")
	}

	err := plot()
	if !errors.Is(err, encodeErr) {
		t.Errorf("errors.Is(%v, encodeErr) = false", err)
	}
	for _, want := range []string{"panic in visualize.Save", "canvas released", "png encode failed"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err.Error(), want)
		}
	}
	if IsPanic(err) {
		t.Error("a panic over an existing error is reported as a wrapped error, not a *PanicError")
	}
}

func TestRecoverPanicValues(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"string", "bad glyph", "bad glyph"},
		{"int", 42, "42"},
		{"error", fmt.Errorf("bad tick"), "bad tick"},
		{"nil", nil, "panic called with nil argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := func() (err error) {
				defer Recover(&err, "render")
				panic(tt.value)
			}
			err := fn()
			var pe *PanicError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PanicError, got %T", err)
			}
			if got := fmt.Sprint(pe.PanicValue); !strings.Contains(got, tt.want) {
				t.Errorf("PanicValue = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecoverWithoutPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "render")
		return nil
	}
	if err := fn(); err != nil {
		t.Errorf("Recover() without a panic set err = %v", err)
	}
}

func TestPanicErrorString(t *testing.T) {
	pe := NewPanicError("schema.Generate", "decoder exploded")

	if got, want := pe.Error(), "panic in schema.Generate: decoder exploded"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if s := pe.String(); !strings.Contains(s, "Stack trace:") || !strings.Contains(s, pe.Error()) {
		t.Errorf("String() should carry the message and stack trace:\n%s", s)
	}
	if pe.Unwrap() != nil {
		t.Error("Unwrap() should return nil")
	}
}

func BenchmarkSafeExecute_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = SafeExecute("render", func() error { return nil })
	}
}
