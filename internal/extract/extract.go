// Package extract reads the raw match and player-stat files into frames.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"footballdw/internal/config"
	"footballdw/internal/frame"
	csvparser "footballdw/internal/parser/csv"
)

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errors.New("extract: decode failed")

// DecodeError reports that no configured encoding could decode a file.
type DecodeError struct {
	Path  string
	Tried []string
	Last  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("extract: cannot decode %s with encodings [%s]: %v", e.Path, strings.Join(e.Tried, ", "), e.Last)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func (e *DecodeError) Unwrap() error { return e.Last }

// Options configures one input file.
type Options struct {
	Encoding         string
	FallbackEncoding string
	Parser           config.Options
}

// OptionsFrom builds Options from a configured file source.
func OptionsFrom(src config.FileSource, parser config.Options) Options {
	return Options{
		Encoding:         src.Encoding,
		FallbackEncoding: src.FallbackEncoding,
		Parser:           parser,
	}
}

// Matches reads the match file. The primary encoding is tried first and the
// fallback encoding only when that fails.
func Matches(ctx context.Context, path string, opt Options) (*frame.Frame, error) {
	encs := []string{opt.Encoding}
	if opt.FallbackEncoding != "" && !strings.EqualFold(opt.FallbackEncoding, opt.Encoding) {
		encs = append(encs, opt.FallbackEncoding)
	}
	return readFile(ctx, "matches", path, encs, opt.Parser)
}

// PlayerStats reads the player-stat file with its single fixed encoding.
func PlayerStats(ctx context.Context, path string, opt Options) (*frame.Frame, error) {
	return readFile(ctx, "player_stats", path, []string{opt.Encoding}, opt.Parser)
}

func readFile(ctx context.Context, name, path string, encs []string, parser config.Options) (*frame.Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	text, _, err := Decode(raw, encs...)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}

	f, err := csvparser.Read(ctx, strings.NewReader(text), name, parser)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	return f, nil
}

// Decode converts raw bytes to UTF-8 text using the first encoding that
// decodes cleanly, and returns the encoding name that succeeded. UTF-8 is
// strict: any invalid sequence fails it. A leading byte-order mark is dropped.
func Decode(raw []byte, encs ...string) (string, string, error) {
	de := &DecodeError{}
	for _, name := range encs {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "utf-8"
		}
		de.Tried = append(de.Tried, name)

		enc, err := htmlindex.Get(name)
		if err != nil {
			de.Last = err
			continue
		}
		text, err := decodeWith(name, enc, raw)
		if err != nil {
			de.Last = err
			continue
		}
		return strings.TrimPrefix(text, "\uFEFF"), name, nil
	}
	if de.Last == nil {
		de.Last = errors.New("no encodings configured")
	}
	return "", "", de
}

func decodeWith(name string, enc encoding.Encoding, raw []byte) (string, error) {
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid utf-8 at byte %d", firstInvalidUTF8(raw))
		}
		return string(raw), nil
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	// Decoders substitute U+FFFD for unmappable bytes instead of failing.
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.ContainsRune(raw, utf8.RuneError) {
		return "", fmt.Errorf("unmappable bytes for %s", name)
	}
	return string(out), nil
}

func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
