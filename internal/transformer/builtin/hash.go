// Package builtin contains small value helpers shared by the transformer and
// the storage layer.
package builtin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"
	"time"
)

// Digest accumulates an order-sensitive SHA-256 over rows of values. Two
// relations with the same rows in the same order produce the same Sum.
//
// Canonicalization rules:
//   - Values within a row are joined by 0x1f, rows are terminated by 0x1e.
//   - nil is a single NUL byte, so missing differs from empty string.
//   - Integers and floats use their shortest decimal form; a float with no
//     fractional part hashes like the integer of the same value, because
//     drivers disagree on whether aggregates come back as int or float.
//   - time.Time is RFC3339Nano in UTC.
type Digest struct {
	h hash.Hash
	b strings.Builder
}

func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

// Add hashes one row.
func (d *Digest) Add(row []any) {
	d.b.Reset()
	for i, v := range row {
		if i > 0 {
			d.b.WriteByte('\x1f')
		}
		AppendCanonicalValue(&d.b, v)
	}
	d.b.WriteByte('\x1e')
	_, _ = d.h.Write([]byte(d.b.String()))
}

// Sum returns the lowercase hex digest.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// AppendCanonicalValue appends a stable representation of v.
// It avoids fmt.Sprint for common types to reduce allocations.
func AppendCanonicalValue(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteByte('\x00')

	case string:
		b.WriteString(t)

	case []byte:
		b.Write(t)

	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case int:
		b.WriteString(strconv.Itoa(t))
	case int8:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int16:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))

	case uint8:
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint16:
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(t, 10))

	case float32:
		appendFloat(b, float64(t), 32)
	case float64:
		appendFloat(b, t, 64)

	case time.Time:
		tt := t
		if !tt.IsZero() {
			tt = tt.UTC()
		}
		b.WriteString(tt.Format(time.RFC3339Nano))

	default:
		b.WriteString(fmt.Sprint(t))
	}
}

func appendFloat(b *strings.Builder, f float64, bits int) {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		b.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
}
