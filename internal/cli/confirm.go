package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	responseYes = "yes"
	responseY   = "y"
)

// ConfirmPrompt asks the user for confirmation on the command's input
func ConfirmPrompt(cmd *cobra.Command, message string) (bool, error) {
	if assumeYesFlag {
		return true, nil
	}

	yellow := color.New(color.FgYellow)
	_, _ = yellow.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", message)

	reader := bufio.NewReader(cmd.InOrStdin())
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == responseY || response == responseYes, nil
}

// ConfirmDestructive prompts for confirmation before a destructive action
func ConfirmDestructive(cmd *cobra.Command, action string) (bool, error) {
	if !assumeYesFlag {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(cmd.OutOrStdout(), "Warning: You are about to %s\n\n", action)
	}
	return ConfirmPrompt(cmd, "Do you want to continue")
}

// readLine reads one trimmed line from the command's input
func readLine(cmd *cobra.Command, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
