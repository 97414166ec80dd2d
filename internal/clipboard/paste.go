package clipboard

import (
	"encoding/base64"
	"strings"
	"time"
)

// now is swapped in tests
var now = time.Now

// File is a file attached to a paste event
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// PasteEvent is what a host hands over when the user pastes
type PasteEvent interface {
	// PreventDefault suppresses the host's own paste handling
	PreventDefault()

	// Files returns the attached files, if any
	Files() []File

	// Text returns the text/plain payload, or "" if there is none
	Text() string
}

// Event is a PasteEvent built from data already in memory
type Event struct {
	text      string
	files     []File
	prevented bool
}

// NewEvent creates a paste event carrying text and optional files
func NewEvent(text string, files ...File) *Event {
	return &Event{text: text, files: files}
}

func (e *Event) PreventDefault() { e.prevented = true }
func (e *Event) Files() []File   { return e.files }
func (e *Event) Text() string    { return e.text }

// DefaultPrevented reports whether PreventDefault was called
func (e *Event) DefaultPrevented() bool { return e.prevented }

// HandlePaste turns a paste event into an entry and hands it to callback.
// An image in the first attached file wins over text; with neither present
// the callback is not invoked.
func HandlePaste(ev PasteEvent, callback func(Entry)) {
	ev.PreventDefault()

	if files := ev.Files(); len(files) > 0 {
		file := files[0]
		if strings.HasPrefix(file.MimeType, "image/") {
			callback(Entry{
				Type:      EntryTypeImage,
				Content:   EncodeDataURI(file.MimeType, file.Data),
				Timestamp: now(),
			})
			return
		}
	}

	text := ev.Text()
	if text == "" {
		return
	}

	entry := Entry{
		Type:      EntryTypeText,
		Content:   text,
		Timestamp: now(),
	}
	if DetectCode(text) {
		entry.Type = EntryTypeCode
		entry.Language = DetectLanguage(text)
	}
	callback(entry)
}

// EncodeDataURI returns data as a base64 data URI of the given MIME type
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
