package converter

import (
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"

	"github.com/boatkit-io/blf/pkg/blf"
	"github.com/boatkit-io/blf/pkg/frame"
)

// DefaultTemplate renders a frame the way TextFromFrame does.
const DefaultTemplate = `{{ .Time | date "2006-01-02T15:04:05.000000Z07:00" }} {{ .Frame }}`

// TextFromFrame renders f on one line, prefixed with its wall clock time.
func TextFromFrame(f frame.Frame, wall time.Time) string {
	return wall.Format("2006-01-02T15:04:05.000000Z07:00") + " " + f.String()
}

// TemplateData is what a template passed to NewTemplateFormatter is executed with.
type TemplateData struct {
	Index  int
	Time   time.Time
	Offset time.Duration
	Type   string
	Frame  frame.Frame
}

// NewTemplateData fills in the derived fields for f.
func NewTemplateData(index int, f frame.Frame, wall time.Time) TemplateData {
	h := f.FrameHeader()
	return TemplateData{
		Index:  index,
		Time:   wall,
		Offset: h.Timestamp,
		Type:   blf.ObjectType(h.ObjectType).String(),
		Frame:  f,
	}
}

// TemplateFormatter renders frames with a text/template that has the sprig functions
// plus hexbytes available.
type TemplateFormatter struct {
	tmpl *template.Template
}

// NewTemplateFormatter parses text. A trailing newline is added when missing.
func NewTemplateFormatter(text string) (*TemplateFormatter, error) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	funcs := sprig.TxtFuncMap()
	funcs["hexbytes"] = hexBytes
	tmpl, err := template.New("frame").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parsing output template")
	}
	return &TemplateFormatter{tmpl: tmpl}, nil
}

// Format writes one rendered frame to w.
func (t *TemplateFormatter) Format(w io.Writer, d TemplateData) error {
	return errors.Wrapf(t.tmpl.Execute(w, d), "rendering frame %d", d.Index)
}

func hexBytes(data []uint8) string {
	const digits = "0123456789abcdef"
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(digits[v>>4])
		b.WriteByte(digits[v&0x0f])
	}
	return b.String()
}
