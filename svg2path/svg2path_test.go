package svg2path

import (
	"errors"
	"testing"

	"github.com/danloi2/transparente/internal/testutil/testlog"
	tptypes "github.com/danloi2/transparente/type"
)

const potraceOutput = `<?xml version="1.0" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 20010904//EN"
 "http://www.w3.org/TR/2001/REC-SVG-20010904/DTD/svg10.dtd">
<svg version="1.0" xmlns="http://www.w3.org/2000/svg"
 width="100.000000pt" height="80.000000pt" viewBox="0 0 100.000000 80.000000"
 preserveAspectRatio="xMidYMid meet">
<metadata>
Created by potrace 1.16
</metadata>
<g transform="translate(0.000000,80.000000) scale(0.100000,-0.100000)"
fill="#000000" stroke="none">
<path d="M100 700 l0 -600 800 0 800 0 0 600 0 600 -800 0 -800 0 0 -600z"/>
<path d="M300 300 l0 -100 100 0 0 100z"/>
</g>
</svg>`

func TestParsePotraceOutput(t *testing.T) {
	testlog.Start(t)
	paths, err := Parse(potraceOutput)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	want := "translate(0.000000,80.000000) scale(0.100000,-0.100000)"
	for i, p := range paths {
		if p.Transform != want {
			t.Fatalf("path %d transform %q", i, p.Transform)
		}
	}
	if paths[1].Data != "M300 300 l0 -100 100 0 0 100z" {
		t.Fatalf("unexpected data %q", paths[1].Data)
	}
}

func TestParseNestedTransforms(t *testing.T) {
	testlog.Start(t)
	doc := `<svg xmlns="http://www.w3.org/2000/svg"><g transform="scale(2)"><g transform="translate(1,1)"><path d="M0 0z" transform="rotate(5)"/></g></g><path d="M1 1z"/></svg>`
	paths, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0].Transform != "scale(2) translate(1,1) rotate(5)" {
		t.Fatalf("unexpected joined transform %q", paths[0].Transform)
	}
	if paths[1].Transform != "" {
		t.Fatalf("top-level path should have no transform, got %q", paths[1].Transform)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	testlog.Start(t)
	paths, err := Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"></svg>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no paths, got %d", len(paths))
	}
}

func TestParseMalformed(t *testing.T) {
	testlog.Start(t)
	for _, doc := range []string{
		"",
		"<svg><path d=\"M0 0\"></svg",
		"<html><path d=\"M0 0z\"/></html>",
		"just text",
	} {
		_, err := Parse(doc)
		if !errors.Is(err, tptypes.ErrTrace) {
			t.Fatalf("%q: expected TraceError, got %v", doc, err)
		}
	}
}

func TestReadViewBox(t *testing.T) {
	testlog.Start(t)
	vb, err := ReadViewBox(`<svg xmlns="http://www.w3.org/2000/svg" width="12" height="7" viewBox="0 0 12 7"></svg>`)
	if err != nil {
		t.Fatalf("read viewBox: %v", err)
	}
	if vb != "0 0 12 7" {
		t.Fatalf("unexpected viewBox %q", vb)
	}
}
