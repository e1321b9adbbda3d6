// FILE: lixenwraith/logsetup/format.go
package logsetup

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/lixenwraith/logsetup/sanitizer"
)

// FormatOptions parameterizes a Formatter. Zero values select the defaults.
type FormatOptions struct {
	Type       string // "txt" (default), "json" or "raw"
	Template   string // txt only, see DefaultTemplate
	DateFormat string // Go reference layout, txt only
}

// Formatter renders records to text. It holds no per-call state and is
// safe for concurrent use by any number of sinks.
type Formatter struct {
	typ        string
	dateFormat string
	segments   []segment
	txt        *sanitizer.Sanitizer
	json       *sanitizer.Sanitizer
}

// segment is either a literal or a field reference of a parsed template
type segment struct {
	literal string
	field   string
}

var templateFields = map[string]struct{}{
	"level": {}, "logger": {}, "module": {}, "function": {}, "file": {},
	"line": {}, "time": {}, "thread": {}, "thread_id": {}, "message": {},
}

var defaultFormatter = mustFormatter(FormatOptions{})

// NewFormatter validates opts and compiles the template
func NewFormatter(opts FormatOptions) (*Formatter, error) {
	typ := opts.Type
	if typ == "" {
		typ = FormatTxt
	}
	if typ != FormatTxt && typ != FormatJSON && typ != FormatRaw {
		return nil, invalidArgf("invalid format type: '%s' (use txt, json, or raw)", typ)
	}
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	dateFormat := opts.DateFormat
	if dateFormat == "" {
		dateFormat = DefaultDateFormat
	}
	segments, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}
	return &Formatter{
		typ:        typ,
		dateFormat: dateFormat,
		segments:   segments,
		txt:        sanitizer.New().Policy(sanitizer.PolicyTxt),
		json:       sanitizer.New().Policy(sanitizer.PolicyJSON),
	}, nil
}

// DefaultFormatter returns the shared formatter with default template and date format
func DefaultFormatter() *Formatter {
	return defaultFormatter
}

func mustFormatter(opts FormatOptions) *Formatter {
	f, err := NewFormatter(opts)
	if err != nil {
		panic(err)
	}
	return f
}

// parseTemplate splits a template into literals and {field} references.
// "{{" and "}}" produce literal braces.
func parseTemplate(tmpl string) ([]segment, error) {
	var segments []segment
	var lit strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, invalidArgf("unclosed field in template at offset %d", i)
			}
			name := tmpl[i+1 : i+end]
			if _, ok := templateFields[name]; !ok {
				return nil, invalidArgf("unknown template field '{%s}'", name)
			}
			if lit.Len() > 0 {
				segments = append(segments, segment{literal: lit.String()})
				lit.Reset()
			}
			segments = append(segments, segment{field: name})
			i += end
		default:
			lit.WriteByte(c)
		}
	}
	if lit.Len() > 0 {
		segments = append(segments, segment{literal: lit.String()})
	}
	return segments, nil
}

// Type returns the output type
func (f *Formatter) Type() string {
	return f.typ
}

// Render formats a record according to the formatter type
func (f *Formatter) Render(r *Record) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	switch f.typ {
	case FormatJSON:
		buf.B = f.appendJSON(buf.B, r)
	case FormatRaw:
		buf.B = append(buf.B, r.Message...)
	default:
		buf.B = f.appendTxt(buf.B, r)
	}
	return string(buf.B)
}

func (f *Formatter) appendTxt(dst []byte, r *Record) []byte {
	for _, seg := range f.segments {
		if seg.field == "" {
			dst = append(dst, seg.literal...)
			continue
		}
		switch seg.field {
		case "level":
			dst = append(dst, LevelName(r.Level)...)
		case "logger":
			dst = append(dst, r.Logger...)
		case "module":
			dst = append(dst, r.Module...)
		case "function":
			dst = append(dst, r.Function...)
		case "file":
			dst = append(dst, r.File...)
		case "line":
			dst = strconv.AppendInt(dst, int64(r.Line), 10)
		case "time":
			dst = r.Time.AppendFormat(dst, f.dateFormat)
		case "thread":
			dst = append(dst, r.ThreadName...)
		case "thread_id":
			dst = strconv.AppendUint(dst, r.ThreadID, 10)
		case "message":
			dst = f.txt.Append(dst, r.Message)
		}
	}
	if r.Err != nil {
		dst = append(dst, '\n')
		dst = append(dst, r.Err.Kind...)
		dst = append(dst, ": "...)
		dst = f.txt.Append(dst, r.Err.Text)
		if r.Err.Stack != "" {
			dst = append(dst, '\n')
			dst = f.txt.Append(dst, r.Err.Stack)
		}
	}
	return dst
}

func (f *Formatter) appendJSON(dst []byte, r *Record) []byte {
	dst = append(dst, `{"time":"`...)
	dst = r.Time.AppendFormat(dst, time.RFC3339Nano)
	dst = append(dst, `","level":"`...)
	dst = append(dst, LevelName(r.Level)...)
	dst = append(dst, `","level_no":`...)
	dst = strconv.AppendInt(dst, r.Level, 10)
	dst = f.appendJSONString(dst, "logger", r.Logger)
	dst = f.appendJSONString(dst, "module", r.Module)
	dst = f.appendJSONString(dst, "function", r.Function)
	dst = f.appendJSONString(dst, "file", r.File)
	dst = append(dst, `,"line":`...)
	dst = strconv.AppendInt(dst, int64(r.Line), 10)
	dst = f.appendJSONString(dst, "thread", r.ThreadName)
	dst = append(dst, `,"thread_id":`...)
	dst = strconv.AppendUint(dst, r.ThreadID, 10)
	dst = f.appendJSONString(dst, "message", r.Message)
	if r.Err != nil {
		dst = append(dst, `,"error":{"kind":"`...)
		dst = f.json.Append(dst, r.Err.Kind)
		dst = append(dst, '"')
		dst = f.appendJSONString(dst, "value", r.Err.Text)
		dst = f.appendJSONString(dst, "stack", r.Err.Stack)
		dst = append(dst, '}')
	}
	return append(dst, '}')
}

// appendJSONString appends ,"key":"escaped value"
func (f *Formatter) appendJSONString(dst []byte, key, value string) []byte {
	dst = append(dst, ',', '"')
	dst = append(dst, key...)
	dst = append(dst, `":"`...)
	dst = f.json.Append(dst, value)
	return append(dst, '"')
}

// wireRecord mirrors the json formatter output
type wireRecord struct {
	Time     time.Time `json:"time"`
	LevelNo  int64     `json:"level_no"`
	Logger   string    `json:"logger"`
	Module   string    `json:"module"`
	Function string    `json:"function"`
	File     string    `json:"file"`
	Line     int       `json:"line"`
	Thread   string    `json:"thread"`
	ThreadID uint64    `json:"thread_id"`
	Message  string    `json:"message"`
	Error    *struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
		Stack string `json:"stack"`
	} `json:"error"`
}

// ParseRecordJSON rebuilds a Record from the output of a json Formatter
func ParseRecordJSON(data []byte) (*Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmtErrorf("failed to decode record: %w", err)
	}
	r := &Record{
		Level:      w.LevelNo,
		Message:    w.Message,
		Logger:     w.Logger,
		Module:     w.Module,
		Function:   w.Function,
		File:       w.File,
		Line:       w.Line,
		Time:       w.Time,
		ThreadName: w.Thread,
		ThreadID:   w.ThreadID,
	}
	if w.Error != nil {
		r.Err = &ErrorInfo{
			Kind:  w.Error.Kind,
			Value: w.Error.Value,
			Text:  w.Error.Value,
			Stack: w.Error.Stack,
		}
	}
	return r, nil
}
