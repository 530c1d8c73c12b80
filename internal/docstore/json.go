package docstore

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Field returns the raw value of a top-level field. JSON null counts as
// absent.
func Field(data []byte, name string) (jx.Raw, bool) {
	var (
		raw   jx.Raw
		found bool
	)
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != name || found {
			return d.Skip()
		}
		v, err := d.Raw()
		if err != nil {
			return err
		}
		if v.Type() != jx.Null {
			raw = append(jx.Raw(nil), v...)
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, false
	}
	return raw, found
}

// MergePatch applies patch to doc one level deep. Fields in patch replace
// fields in doc, null values delete them, and new fields are appended in
// patch order.
func MergePatch(doc, patch []byte) ([]byte, error) {
	type field struct {
		key string
		raw jx.Raw
	}
	var (
		fields []field
		index  = map[string]int{}
	)
	if err := jx.DecodeBytes(patch).Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Raw()
		if err != nil {
			return err
		}
		if i, ok := index[key]; ok {
			fields[i].raw = v
			return nil
		}
		index[key] = len(fields)
		fields = append(fields, field{key: key, raw: v})
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode patch")
	}

	used := make([]bool, len(fields))
	var e jx.Encoder
	e.ObjStart()
	if err := jx.DecodeBytes(doc).Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Raw()
		if err != nil {
			return err
		}
		if i, ok := index[key]; ok {
			used[i] = true
			v = fields[i].raw
		}
		if v.Type() == jx.Null {
			return nil
		}
		e.FieldStart(key)
		e.Raw(v)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	for i, f := range fields {
		if used[i] || f.raw.Type() == jx.Null {
			continue
		}
		e.FieldStart(f.key)
		e.Raw(f.raw)
	}
	e.ObjEnd()
	return e.Bytes(), nil
}

// ValidObject reports whether data is a single JSON object.
func ValidObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{' && jx.Valid(data)
}

// Compare orders two raw JSON values of a sort field. Numbers compare
// numerically, everything else by its decoded string form.
func Compare(a, b jx.Raw) int {
	if a.Type() == jx.Number && b.Type() == jx.Number {
		fa, errA := jx.DecodeBytes(a).Float64()
		fb, errB := jx.DecodeBytes(b).Float64()
		if errA == nil && errB == nil {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(text(a), text(b))
}

func text(r jx.Raw) string {
	if r.Type() == jx.String {
		if s, err := jx.DecodeBytes(r).Str(); err == nil {
			return s
		}
	}
	return r.String()
}

// TimeLayout is the ISO-8601 form timestamps are stored in.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout and plain RFC 3339 timestamps.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse timestamp %q", s)
	}
	return t, nil
}
