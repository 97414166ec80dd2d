package ui

import (
	"fmt"
	"time"

	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
)

// EntryLabel is the menu title for a history entry
func EntryLabel(e clipboard.Entry, width int) string {
	switch e.Type {
	case clipboard.EntryTypeImage:
		return "🖼  " + clipboard.Preview(e, width)
	case clipboard.EntryTypeCode:
		return "⌘  " + clipboard.Preview(e, width)
	default:
		return "¶  " + clipboard.Preview(e, width)
	}
}

// EntryTooltip describes an entry's kind and age
func EntryTooltip(e clipboard.Entry) string {
	kind := string(e.Type)
	if e.Type == clipboard.EntryTypeCode && e.Language != clipboard.LanguageNone {
		kind += " (" + string(e.Language) + ")"
	}
	return fmt.Sprintf("#%d %s, copied %s", e.ID, kind, e.Timestamp.Local().Format("Jan 2 15:04"))
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	} else if d < 48*time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d days", int(d.Hours()/24))
}
