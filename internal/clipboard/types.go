package clipboard

import (
	"encoding/json"
	"time"
)

// EntryType represents the kind of a recorded clipboard capture
type EntryType string

const (
	EntryTypeText  EntryType = "text"
	EntryTypeCode  EntryType = "code"
	EntryTypeImage EntryType = "image"
)

// Language is the guessed language of a code entry
type Language string

const (
	LanguageNone       Language = ""
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageHTML       Language = "html"
	LanguageCSS        Language = "css"
	LanguageText       Language = "text"
)

// Languages lists the selectable languages for code entries
var Languages = []Language{
	LanguageJavaScript,
	LanguagePython,
	LanguageJava,
	LanguageHTML,
	LanguageCSS,
	LanguageText,
}

// ParseLanguage returns the Language named by s and whether it is one of
// the known languages.
func ParseLanguage(s string) (Language, bool) {
	for _, l := range Languages {
		if string(l) == s {
			return l, true
		}
	}
	return LanguageNone, false
}

// Entry represents one recorded clipboard capture
type Entry struct {
	ID        int       `json:"id"`
	Type      EntryType `json:"type"`
	Content   string    `json:"content"`
	Language  Language  `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// TimestampLayout is how entry timestamps are persisted: UTC with
// millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type isoTime time.Time

func (t isoTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(TimestampLayout))
}

func (t *isoTime) UnmarshalJSON(data []byte) error {
	var tt time.Time
	if err := tt.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = isoTime(tt)
	return nil
}

// entryJSON mirrors the persisted shape: text and code entries carry a
// language key (null for text), image entries carry none.
type entryJSON struct {
	ID        int       `json:"id"`
	Type      EntryType `json:"type"`
	Content   string    `json:"content"`
	Language  *Language `json:"language"`
	Timestamp isoTime   `json:"timestamp"`
}

type imageEntryJSON struct {
	ID        int       `json:"id"`
	Type      EntryType `json:"type"`
	Content   string    `json:"content"`
	Timestamp isoTime   `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Type == EntryTypeImage && e.Language == LanguageNone {
		return json.Marshal(imageEntryJSON{
			ID:        e.ID,
			Type:      e.Type,
			Content:   e.Content,
			Timestamp: isoTime(e.Timestamp),
		})
	}

	out := entryJSON{
		ID:        e.ID,
		Type:      e.Type,
		Content:   e.Content,
		Timestamp: isoTime(e.Timestamp),
	}
	if e.Language != LanguageNone {
		lang := e.Language
		out.Language = &lang
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	e.ID = in.ID
	e.Type = in.Type
	e.Content = in.Content
	e.Timestamp = time.Time(in.Timestamp)
	e.Language = LanguageNone
	if in.Language != nil {
		e.Language = *in.Language
	}
	return nil
}

// IsText returns true if the entry holds plain text
func (e *Entry) IsText() bool {
	return e.Type == EntryTypeText
}

// IsCode returns true if the entry holds detected source code
func (e *Entry) IsCode() bool {
	return e.Type == EntryTypeCode
}

// IsImage returns true if the entry holds an image data URI
func (e *Entry) IsImage() bool {
	return e.Type == EntryTypeImage
}
