package config

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/danloi2/transparente/alpha2color"
	"github.com/danloi2/transparente/alpha2dots"
	"github.com/danloi2/transparente/alpha2tone"
	"github.com/danloi2/transparente/image2alpha"
	"github.com/danloi2/transparente/mask2svg"
)

const (
	TracerPotrace = "potrace"
	TracerGotrace = "gotrace"
)

// Output 产物路径为 <Dir>/<stem><Tag><suffix>
type Output struct {
	Dir        string
	Tag        string
	Alpha      string
	Gray       string
	Halftone   string
	Lineart    string
	ColorLogo  string
	ColorIllus string
	Thumb      string
}

// Suffixes 按流程顺序返回 产物名 -> 后缀
func (o Output) Suffixes() [][2]string {
	return [][2]string{
		{"alpha", o.Alpha},
		{"gray", o.Gray},
		{"halftone", o.Halftone},
		{"lineart", o.Lineart},
		{"color_logo", o.ColorLogo},
		{"color_illus", o.ColorIllus},
		{"thumb", o.Thumb},
	}
}

type Gray struct {
	Tones alpha2tone.Options
	Trace mask2svg.TraceParams
}

type Lineart struct {
	Threshold int
	Trace     mask2svg.TraceParams
}

type Color struct {
	Cluster alpha2color.Options
	Trace   mask2svg.TraceParams
	// 黑白图使用的描摹参数
	MonoTrace mask2svg.TraceParams
}

type Tracer struct {
	Kind    string
	Binary  string
	Timeout time.Duration
}

type Matting struct {
	// 抠图进程 argv：stdin 读原图，stdout 输出 RGBA PNG；为空则直接使用原图
	Command []string
}

type Runtime struct {
	ParallelImages   int
	ParallelVariants int
	Extensions       []string
}

type Config struct {
	Output     Output
	Alpha      image2alpha.RefineOptions
	Gray       Gray
	Halftone   alpha2dots.Options
	Lineart    Lineart
	ColorLogo  Color
	ColorIllus Color
	ThumbWidth int
	Tracer     Tracer
	Matting    Matting
	Runtime    Runtime
}

func Default() Config {
	logo := alpha2color.DefaultOptions()
	logo.NumColors = 16
	logo.BlurRadius = 0.5
	illus := alpha2color.DefaultOptions()
	illus.NumColors = 48
	illus.BlurRadius = 1

	return Config{
		Output: Output{
			Dir:        "output",
			Tag:        "_alpha",
			Alpha:      ".png",
			Gray:       "_gray.svg",
			Halftone:   "_halftone.svg",
			Lineart:    "_lineart.svg",
			ColorLogo:  "_color_logo.svg",
			ColorIllus: "_color_illus.svg",
			Thumb:      "_thumb.png",
		},
		Alpha: image2alpha.DefaultRefineOptions(),
		Gray: Gray{
			Tones: alpha2tone.DefaultOptions(),
			Trace: traceParams(8, 1.0, 0.2),
		},
		Halftone: alpha2dots.DefaultOptions(),
		Lineart: Lineart{
			Threshold: alpha2tone.DefaultLineartThreshold,
			Trace:     traceParams(10, 1.0, 0.2),
		},
		ColorLogo: Color{
			Cluster:   logo,
			Trace:     traceParams(2, 0.8, 0.2),
			MonoTrace: traceParams(2, 0.5, 0.2),
		},
		ColorIllus: Color{
			Cluster:   illus,
			Trace:     traceParams(2, 0.8, 0.2),
			MonoTrace: traceParams(2, 0.5, 0.2),
		},
		ThumbWidth: 150,
		Tracer: Tracer{
			Kind:    TracerPotrace,
			Binary:  "potrace",
			Timeout: mask2svg.DefaultTraceTimeout,
		},
		Runtime: Runtime{
			ParallelImages:   2,
			ParallelVariants: 5,
			Extensions:       []string{".png", ".jpg", ".jpeg"},
		},
	}
}

func traceParams(turd int, alphaMax, optTol float64) mask2svg.TraceParams {
	return mask2svg.TraceParams{Flat: true, TurdSize: turd, AlphaMax: alphaMax, OptTolerance: optTol}
}

// Validate 检查无法运行的配置
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Output.Dir) == "" {
		errs = append(errs, errors.New("output.dir must not be empty"))
	}
	seen := map[string]string{}
	for _, s := range c.Output.Suffixes() {
		name, suffix := s[0], s[1]
		if suffix == "" {
			errs = append(errs, fmt.Errorf("output.%s: empty suffix", name))
			continue
		}
		if prev, ok := seen[suffix]; ok {
			errs = append(errs, fmt.Errorf("output.%s: suffix %q already used by output.%s", name, suffix, prev))
			continue
		}
		seen[suffix] = name
	}

	if c.Gray.Tones.NumTones <= 0 {
		errs = append(errs, errors.New("gray.num_tones must be positive"))
	}
	if c.Halftone.Spacing <= 0 {
		errs = append(errs, errors.New("halftone.spacing must be positive"))
	}
	if c.Lineart.Threshold < 0 || c.Lineart.Threshold > 256 {
		errs = append(errs, errors.New("lineart.threshold must be within 0..256"))
	}
	for name, cc := range map[string]Color{"color_logo": c.ColorLogo, "color_illus": c.ColorIllus} {
		if cc.Cluster.NumColors <= 0 {
			errs = append(errs, fmt.Errorf("%s.num_colors must be positive", name))
		}
	}
	for name, tp := range map[string]mask2svg.TraceParams{
		"gray":        c.Gray.Trace,
		"lineart":     c.Lineart.Trace,
		"color_logo":  c.ColorLogo.Trace,
		"color_illus": c.ColorIllus.Trace,
	} {
		if tp.AlphaMax < 0 || tp.AlphaMax > 1.3 {
			errs = append(errs, fmt.Errorf("%s.alphamax %.2f out of range 0..1.3", name, tp.AlphaMax))
		}
	}
	if c.ThumbWidth <= 0 {
		errs = append(errs, errors.New("thumbnail.width must be positive"))
	}
	switch c.Tracer.Kind {
	case TracerPotrace, TracerGotrace:
	default:
		errs = append(errs, fmt.Errorf("tracer.kind %q: want %s or %s", c.Tracer.Kind, TracerPotrace, TracerGotrace))
	}
	if c.Tracer.Timeout <= 0 {
		errs = append(errs, errors.New("tracer.timeout must be positive"))
	}
	if c.Runtime.ParallelImages <= 0 || c.Runtime.ParallelVariants <= 0 {
		errs = append(errs, errors.New("runtime parallelism must be positive"))
	}
	return errors.Join(errs...)
}

type fileTrace struct {
	TurdSize     int     `toml:"turdsize"`
	AlphaMax     float64 `toml:"alphamax"`
	OptTolerance float64 `toml:"opttolerance"`
	LongCurve    bool    `toml:"longcurve"`
	Flat         bool    `toml:"flat"`
}

type fileColor struct {
	NumColors     int       `toml:"num_colors"`
	BlurRadius    float64   `toml:"blur_radius"`
	Seed          uint64    `toml:"seed"`
	MaxIterations int       `toml:"max_iterations"`
	MaxSamples    int       `toml:"max_samples"`
	WhiteSum      int       `toml:"white_sum"`
	Trace         fileTrace `toml:"trace"`
	MonoTrace     fileTrace `toml:"mono_trace"`
}

type fileConfig struct {
	Output struct {
		Dir        string `toml:"dir"`
		Tag        string `toml:"tag"`
		Alpha      string `toml:"alpha"`
		Gray       string `toml:"gray"`
		Halftone   string `toml:"halftone"`
		Lineart    string `toml:"lineart"`
		ColorLogo  string `toml:"color_logo"`
		ColorIllus string `toml:"color_illus"`
		Thumb      string `toml:"thumb"`
	} `toml:"output"`
	Alpha struct {
		HaloColor       string  `toml:"halo_color"`
		Tolerance       int     `toml:"tolerance"`
		DespillStrength float64 `toml:"despill_strength"`
		MinAlpha        int     `toml:"min_alpha"`
		FeatherSize     int     `toml:"feather_size"`
		BlurSigma       float64 `toml:"blur_sigma"`
	} `toml:"alpha"`
	Gray struct {
		NumTones      int       `toml:"num_tones"`
		ContrastBoost float64   `toml:"contrast_boost"`
		SmoothEdges   bool      `toml:"smooth_edges"`
		SmoothSigma   float64   `toml:"smooth_sigma"`
		MaxTone       int       `toml:"max_tone"`
		MinPixels     int       `toml:"min_pixels"`
		Trace         fileTrace `toml:"trace"`
	} `toml:"gray"`
	Halftone struct {
		DotSize float64 `toml:"dot_size"`
		Spacing int     `toml:"spacing"`
		Angle   float64 `toml:"angle"`
	} `toml:"halftone"`
	Lineart struct {
		Threshold int       `toml:"threshold"`
		Trace     fileTrace `toml:"trace"`
	} `toml:"lineart"`
	ColorLogo  fileColor `toml:"color_logo"`
	ColorIllus fileColor `toml:"color_illus"`
	Thumbnail  struct {
		Width int `toml:"width"`
	} `toml:"thumbnail"`
	Tracer struct {
		Kind    string `toml:"kind"`
		Binary  string `toml:"binary"`
		Timeout string `toml:"timeout"`
	} `toml:"tracer"`
	Matting struct {
		Command []string `toml:"command"`
	} `toml:"matting"`
	Runtime struct {
		ParallelImages   int      `toml:"parallel_images"`
		ParallelVariants int      `toml:"parallel_variants"`
		Extensions       []string `toml:"extensions"`
	} `toml:"runtime"`
}

// Load 把 TOML 文件叠加到默认配置上并校验，文件中没有的键保持默认
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if und := meta.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config: unknown keys %s", strings.Join(keys, ", "))
	}

	o := raw.Output
	setString(meta, &cfg.Output.Dir, o.Dir, "output", "dir")
	setString(meta, &cfg.Output.Tag, o.Tag, "output", "tag")
	setString(meta, &cfg.Output.Alpha, o.Alpha, "output", "alpha")
	setString(meta, &cfg.Output.Gray, o.Gray, "output", "gray")
	setString(meta, &cfg.Output.Halftone, o.Halftone, "output", "halftone")
	setString(meta, &cfg.Output.Lineart, o.Lineart, "output", "lineart")
	setString(meta, &cfg.Output.ColorLogo, o.ColorLogo, "output", "color_logo")
	setString(meta, &cfg.Output.ColorIllus, o.ColorIllus, "output", "color_illus")
	setString(meta, &cfg.Output.Thumb, o.Thumb, "output", "thumb")

	a := raw.Alpha
	if meta.IsDefined("alpha", "halo_color") {
		c, err := parseColor(a.HaloColor)
		if err != nil {
			return Config{}, fmt.Errorf("parse alpha.halo_color: %w", err)
		}
		cfg.Alpha.HaloColor = c
	}
	setValue(meta, &cfg.Alpha.Tolerance, a.Tolerance, "alpha", "tolerance")
	setValue(meta, &cfg.Alpha.DespillStrength, a.DespillStrength, "alpha", "despill_strength")
	if meta.IsDefined("alpha", "min_alpha") {
		if a.MinAlpha < 0 || a.MinAlpha > 255 {
			return Config{}, fmt.Errorf("alpha.min_alpha %d out of range 0..255", a.MinAlpha)
		}
		cfg.Alpha.MinAlpha = uint8(a.MinAlpha)
	}
	setValue(meta, &cfg.Alpha.FeatherSize, a.FeatherSize, "alpha", "feather_size")
	setValue(meta, &cfg.Alpha.BlurSigma, a.BlurSigma, "alpha", "blur_sigma")

	g := raw.Gray
	setValue(meta, &cfg.Gray.Tones.NumTones, g.NumTones, "gray", "num_tones")
	setValue(meta, &cfg.Gray.Tones.ContrastBoost, g.ContrastBoost, "gray", "contrast_boost")
	setValue(meta, &cfg.Gray.Tones.SmoothEdges, g.SmoothEdges, "gray", "smooth_edges")
	setValue(meta, &cfg.Gray.Tones.SmoothSigma, g.SmoothSigma, "gray", "smooth_sigma")
	setValue(meta, &cfg.Gray.Tones.MaxTone, g.MaxTone, "gray", "max_tone")
	setValue(meta, &cfg.Gray.Tones.MinPixels, g.MinPixels, "gray", "min_pixels")
	overlayTrace(meta, &cfg.Gray.Trace, g.Trace, "gray", "trace")

	h := raw.Halftone
	setValue(meta, &cfg.Halftone.DotSize, h.DotSize, "halftone", "dot_size")
	setValue(meta, &cfg.Halftone.Spacing, h.Spacing, "halftone", "spacing")
	setValue(meta, &cfg.Halftone.Angle, h.Angle, "halftone", "angle")

	setValue(meta, &cfg.Lineart.Threshold, raw.Lineart.Threshold, "lineart", "threshold")
	overlayTrace(meta, &cfg.Lineart.Trace, raw.Lineart.Trace, "lineart", "trace")

	overlayColor(meta, &cfg.ColorLogo, raw.ColorLogo, "color_logo")
	overlayColor(meta, &cfg.ColorIllus, raw.ColorIllus, "color_illus")

	setValue(meta, &cfg.ThumbWidth, raw.Thumbnail.Width, "thumbnail", "width")

	t := raw.Tracer
	setString(meta, &cfg.Tracer.Kind, strings.ToLower(t.Kind), "tracer", "kind")
	setString(meta, &cfg.Tracer.Binary, t.Binary, "tracer", "binary")
	if meta.IsDefined("tracer", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(t.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse tracer.timeout: %w", err)
		}
		cfg.Tracer.Timeout = d
	}

	if meta.IsDefined("matting", "command") {
		cfg.Matting.Command = normalizeList(raw.Matting.Command)
	}

	r := raw.Runtime
	setValue(meta, &cfg.Runtime.ParallelImages, r.ParallelImages, "runtime", "parallel_images")
	setValue(meta, &cfg.Runtime.ParallelVariants, r.ParallelVariants, "runtime", "parallel_variants")
	if meta.IsDefined("runtime", "extensions") {
		exts := normalizeList(r.Extensions)
		for i, e := range exts {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts[i] = e
		}
		cfg.Runtime.Extensions = exts
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func setValue[T any](meta toml.MetaData, dst *T, v T, key ...string) {
	if meta.IsDefined(key...) {
		*dst = v
	}
}

func setString(meta toml.MetaData, dst *string, v string, key ...string) {
	if meta.IsDefined(key...) {
		*dst = strings.TrimSpace(v)
	}
}

func overlayTrace(meta toml.MetaData, dst *mask2svg.TraceParams, raw fileTrace, section ...string) {
	key := func(k string) []string { return append(append([]string{}, section...), k) }
	setValue(meta, &dst.TurdSize, raw.TurdSize, key("turdsize")...)
	setValue(meta, &dst.AlphaMax, raw.AlphaMax, key("alphamax")...)
	setValue(meta, &dst.OptTolerance, raw.OptTolerance, key("opttolerance")...)
	setValue(meta, &dst.LongCurve, raw.LongCurve, key("longcurve")...)
	setValue(meta, &dst.Flat, raw.Flat, key("flat")...)
}

func overlayColor(meta toml.MetaData, dst *Color, raw fileColor, section string) {
	setValue(meta, &dst.Cluster.NumColors, raw.NumColors, section, "num_colors")
	setValue(meta, &dst.Cluster.BlurRadius, raw.BlurRadius, section, "blur_radius")
	setValue(meta, &dst.Cluster.Seed, raw.Seed, section, "seed")
	setValue(meta, &dst.Cluster.MaxIterations, raw.MaxIterations, section, "max_iterations")
	setValue(meta, &dst.Cluster.MaxSamples, raw.MaxSamples, section, "max_samples")
	setValue(meta, &dst.Cluster.WhiteSum, raw.WhiteSum, section, "white_sum")
	overlayTrace(meta, &dst.Trace, raw.Trace, section, "trace")
	overlayTrace(meta, &dst.MonoTrace, raw.MonoTrace, section, "mono_trace")
}

func parseColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
