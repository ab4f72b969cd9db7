package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadExampleMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "transparente.example.toml"))
	if err != nil {
		t.Fatalf("load example: %v", err)
	}
	def := Default()
	if cfg.Output != def.Output {
		t.Fatalf("output differs: %+v vs %+v", cfg.Output, def.Output)
	}
	if cfg.Alpha != def.Alpha {
		t.Fatalf("alpha differs: %+v vs %+v", cfg.Alpha, def.Alpha)
	}
	if cfg.Gray != def.Gray || cfg.Halftone != def.Halftone || cfg.Lineart != def.Lineart {
		t.Fatalf("mono variants differ")
	}
	if cfg.ColorLogo != def.ColorLogo || cfg.ColorIllus != def.ColorIllus {
		t.Fatalf("colour variants differ")
	}
	if cfg.Tracer != def.Tracer {
		t.Fatalf("tracer differs: %+v", cfg.Tracer)
	}
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	path := writeConfig(t, `
[alpha]
halo_color = "#00ff00"
min_alpha = 20

[gray]
num_tones = 4
smooth_edges = false

[color_illus.trace]
alphamax = 1.2

[tracer]
kind = "GOTRACE"
timeout = "5s"

[matting]
command = ["rembg", " i ", "", "-", "-"]

[runtime]
extensions = ["PNG", ".webp"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Alpha.HaloColor != (color.RGBA{G: 255, A: 255}) {
		t.Fatalf("halo colour %+v", cfg.Alpha.HaloColor)
	}
	if cfg.Alpha.MinAlpha != 20 || cfg.Alpha.Tolerance != 15 {
		t.Fatalf("alpha overlay wrong: %+v", cfg.Alpha)
	}
	if cfg.Gray.Tones.NumTones != 4 || cfg.Gray.Tones.SmoothEdges {
		t.Fatalf("gray overlay wrong: %+v", cfg.Gray.Tones)
	}
	if cfg.Gray.Tones.ContrastBoost != 1.2 {
		t.Fatalf("undefined key lost its default")
	}
	if cfg.ColorIllus.Trace.AlphaMax != 1.2 || cfg.ColorIllus.Trace.TurdSize != 2 {
		t.Fatalf("nested trace overlay wrong: %+v", cfg.ColorIllus.Trace)
	}
	if cfg.ColorLogo.Trace.AlphaMax != 0.8 {
		t.Fatalf("logo trace should keep default")
	}
	if cfg.Tracer.Kind != TracerGotrace || cfg.Tracer.Timeout != 5*time.Second {
		t.Fatalf("tracer overlay wrong: %+v", cfg.Tracer)
	}
	if strings.Join(cfg.Matting.Command, "|") != "rembg|i|-|-" {
		t.Fatalf("matting command %q", cfg.Matting.Command)
	}
	if strings.Join(cfg.Runtime.Extensions, ",") != ".png,.webp" {
		t.Fatalf("extensions %q", cfg.Runtime.Extensions)
	}
}

func TestValidateRejectsDuplicateSuffix(t *testing.T) {
	path := writeConfig(t, `
[output]
lineart = "_gray.svg"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("expected duplicate suffix error, got %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Tracer.Kind = "autotrace"
	cfg.Halftone.Spacing = 0
	cfg.Gray.Trace.AlphaMax = 2
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"tracer.kind", "halftone.spacing", "gray.alphamax"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %s", err, want)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[gray]
num_tone = 4
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "gray.num_tone") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
[tracer]
timeout = "soon"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
