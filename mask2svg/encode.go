package mask2svg

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"

	tptypes "github.com/danloi2/transparente/type"
)

// Encode 输出独立 SVG 文档并冻结 doc
func Encode(w io.Writer, doc *tptypes.VectorDocument) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	canvas.Startview(doc.Width, doc.Height, 0, 0, doc.Width, doc.Height)
	if doc.Desc != "" {
		canvas.Desc(doc.Desc)
	}
	if doc.Background != "" {
		canvas.Rect(0, 0, doc.Width, doc.Height, attrs("fill", doc.Background))
	}
	for _, l := range doc.Layers {
		fill := strings.ToLower(l.Fill)
		if l.Circle != nil {
			fmt.Fprintf(canvas.Writer, "<circle cx=\"%d\" cy=\"%d\" r=\"%.2f\" fill=\"%s\" />\n",
				l.Circle.X, l.Circle.Y, l.Circle.Radius, fill)
			continue
		}
		if l.Path.Transform != "" {
			canvas.Gtransform(l.Path.Transform)
		}
		canvas.Path(l.Path.Data, attrs("fill", fill)+` stroke="none"`)
		if l.Path.Transform != "" {
			canvas.Gend()
		}
	}
	canvas.End()

	if ew.err != nil {
		return ew.err
	}
	doc.Finalize()
	return nil
}

// EncodeBytes 编码到内存
func EncodeBytes(doc *tptypes.VectorDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func attrs(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, value)
}

// svgo 不返回写入错误，这里记住第一个
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
