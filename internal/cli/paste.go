package cli

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mindmorass/infinity-clipboard/internal/app"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"github.com/mindmorass/infinity-clipboard/internal/errors"

	"github.com/spf13/cobra"
)

var (
	pasteFile    string
	detectFormat string
)

var pasteCmd = &cobra.Command{
	Use:   "paste [text|-]",
	Short: "Record a paste in the history",
	Long: `Record a paste in the history. The content comes from the argument,
from stdin when the argument is "-", from --file, or otherwise from the
system clipboard. An attached image wins over text.`,
	Example: `  # Record whatever is on the clipboard
  infclip paste

  # Record a snippet from a pipe
  cat main.py | infclip paste -

  # Record a screenshot
  infclip paste --file shot.png`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := GetContext()
		defer cancel()

		return withApp(ctx, func(a *app.App) error {
			ev, err := pasteEvent(cmd, a, args)
			if err != nil {
				return err
			}

			entry, ok := a.GetCaptureEngine().Capture(ctx, ev)
			if !ok {
				return errors.NewWithSuggestion(errors.ExitCodeValidation,
					"Nothing to record: the paste carried no text or image",
					"Pass text as an argument, pipe it with '-', or use --file.")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded #%d %s\n", entry.ID, describeEntry(entry))
			return nil
		})
	},
}

// pasteEvent builds the paste from the first available source
func pasteEvent(cmd *cobra.Command, a *app.App, args []string) (*clipboard.Event, error) {
	var text string
	switch {
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgReadInput, err)
		}
		text = string(data)
	case len(args) == 1:
		text = args[0]
	}

	if pasteFile != "" {
		file, err := readPasteFile(pasteFile)
		if err != nil {
			return nil, err
		}
		return clipboard.NewEvent(text, file), nil
	}

	if len(args) == 1 {
		return clipboard.NewEvent(text), nil
	}

	clip := a.GetClipboard()
	if img, err := clip.ReadImage(); err == nil && len(img) > 0 {
		return clipboard.NewEvent("", clipboard.File{Name: "clipboard.png", MimeType: "image/png", Data: img}), nil
	}

	text, err := clip.ReadText()
	if err != nil {
		return nil, errors.NewWithSuggestion(errors.ExitCodeClipboard,
			"Failed to read the system clipboard: "+err.Error(),
			"Pass the text as an argument or pipe it with '-'.")
	}
	return clipboard.NewEvent(text), nil
}

func readPasteFile(path string) (clipboard.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return clipboard.File{}, errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgReadInput, err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	return clipboard.File{Name: filepath.Base(path), MimeType: mimeType, Data: data}, nil
}

func describeEntry(e clipboard.Entry) string {
	if e.Type == clipboard.EntryTypeCode && e.Language != clipboard.LanguageNone {
		return fmt.Sprintf("%s (%s)", e.Type, e.Language)
	}
	return string(e.Type)
}

// DetectOutput is the classifier verdict for structured output
type DetectOutput struct {
	Code     bool   `json:"code" yaml:"code"`
	Language string `json:"language" yaml:"language"`
}

var detectCmd = &cobra.Command{
	Use:   "detect <text|->",
	Short: "Classify text without recording it",
	Example: `  # Classify a snippet from a pipe
  echo 'def f(x): return x' | infclip detect -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := args[0]
		if text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return errors.NewWithError(errors.ExitCodeFileOperation, errors.ErrMsgReadInput, err)
			}
			text = string(data)
		}

		result := DetectOutput{Code: clipboard.DetectCode(text)}
		if result.Code {
			result.Language = string(clipboard.DetectLanguage(text))
		}

		output := NewOutputWriter(detectFormat)
		output.SetWriter(cmd.OutOrStdout())
		if output.IsStructured() {
			return output.Write(result)
		}

		if !result.Code {
			fmt.Fprintln(cmd.OutOrStdout(), "text")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "code (%s)\n", result.Language)
		return nil
	},
}

func init() {
	pasteCmd.Flags().StringVarP(&pasteFile, "file", "f", "", "Attach a file to the paste (images become image entries)")
	detectCmd.Flags().StringVar(&detectFormat, "format", "table", "Output format (table, json, yaml)")
}
