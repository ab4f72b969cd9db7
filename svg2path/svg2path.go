package svg2path

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rustyoz/svg"

	tptypes "github.com/danloi2/transparente/type"
)

// Parse 从描摹器输出的 SVG 中按顺序提取所有 <path> 的 d 属性及其外层变换。
// 嵌套 <g transform> 会按从外到内的顺序拼接。
// 没有 path 不是错误；无法解析或根元素不是 <svg> 返回 TraceError。
func Parse(svgData string) ([]tptypes.VectorPath, error) {
	dec := xml.NewDecoder(strings.NewReader(svgData))
	var (
		paths   []tptypes.VectorPath
		stack   []string
		sawRoot bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if !sawRoot {
				if el.Name.Local != "svg" {
					return nil, malformed(fmt.Errorf("root element is <%s>, not <svg>", el.Name.Local))
				}
				sawRoot = true
			}
			transform := attr(el, "transform")
			if el.Name.Local == "path" {
				d := strings.TrimSpace(attr(el, "d"))
				if d != "" {
					paths = append(paths, tptypes.VectorPath{
						Data:      d,
						Transform: joinTransforms(stack, transform),
					})
				}
			}
			stack = append(stack, transform)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if !sawRoot {
		return nil, malformed(errors.New("no <svg> element"))
	}
	return paths, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func joinTransforms(outer []string, own string) string {
	parts := make([]string, 0, len(outer)+1)
	for _, t := range outer {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	if own = strings.TrimSpace(own); own != "" {
		parts = append(parts, own)
	}
	return strings.Join(parts, " ")
}

func malformed(err error) error {
	return &tptypes.TraceError{Err: fmt.Errorf("malformed tracer output: %w", err)}
}

// ReadViewBox 读取 SVG 文档的 viewBox
func ReadViewBox(svgData string) (string, error) {
	parsed, err := svg.ParseSvg(svgData, "viewbox", 1.0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(parsed.ViewBox), nil
}
