package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
	"sync"

	atotto "github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	xclipboard "golang.design/x/clipboard"
)

var ErrUnsupported = errors.New("system clipboard not available on this platform")

// System is the desktop clipboard. Text goes through atotto/clipboard
// (pbcopy, xclip/xsel, wl-clipboard, Win32); images go through
// golang.design/x/clipboard, which only speaks PNG.
type System struct {
	initOnce sync.Once
	initErr  error
}

// NewSystem creates a handle on the desktop clipboard
func NewSystem() *System {
	return &System{}
}

func (s *System) initImages() error {
	s.initOnce.Do(func() {
		s.initErr = xclipboard.Init()
	})
	return s.initErr
}

// WriteText implements TextWriter
func (s *System) WriteText(text string) error {
	if atotto.Unsupported {
		return ErrUnsupported
	}
	return atotto.WriteAll(text)
}

// ReadText returns the current text on the clipboard
func (s *System) ReadText() (string, error) {
	if atotto.Unsupported {
		return "", ErrUnsupported
	}
	return atotto.ReadAll()
}

// WriteImage implements ImageWriter. Non-PNG images are re-encoded.
func (s *System) WriteImage(mimeType string, data []byte) error {
	if err := s.initImages(); err != nil {
		return fmt.Errorf("init image clipboard: %w", err)
	}

	if mimeType != "image/png" {
		converted, err := toPNG(data)
		if err != nil {
			return fmt.Errorf("convert %s to png: %w", mimeType, err)
		}
		data = converted
	}

	xclipboard.Write(xclipboard.FmtImage, data)
	return nil
}

// ReadImage returns PNG data on the clipboard, or nil if there is none
func (s *System) ReadImage() ([]byte, error) {
	if err := s.initImages(); err != nil {
		return nil, err
	}
	return xclipboard.Read(xclipboard.FmtImage), nil
}

func toPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TerminalWriter copies text by emitting an OSC 52 escape sequence, which
// the attached terminal forwards to the local clipboard. It works over SSH
// and without any clipboard helper installed.
type TerminalWriter struct {
	out io.Writer
}

// NewTerminalWriter creates a writer emitting to out (stderr if nil)
func NewTerminalWriter(out io.Writer) *TerminalWriter {
	if out == nil {
		out = os.Stderr
	}
	return &TerminalWriter{out: out}
}

// WriteText implements TextWriter
func (w *TerminalWriter) WriteText(text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if strings.HasPrefix(os.Getenv("TERM"), "screen") {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(w.out)
	return err
}
