package cli

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)

	root.AddCommand(pasteCmd)
	root.AddCommand(listCmd)
	root.AddCommand(showCmd)
	root.AddCommand(copyCmd)
	root.AddCommand(downloadCmd)
	root.AddCommand(deleteCmd)
	root.AddCommand(clearCmd)
	root.AddCommand(langCmd)
	root.AddCommand(exportCmd)
	root.AddCommand(importCmd)
	root.AddCommand(detectCmd)
	root.AddCommand(watchCmd)
	root.AddCommand(trayCmd)
	root.AddCommand(dropboxCmd)
	root.AddCommand(configCmd)

	dropboxCmd.AddCommand(
		dropboxLoginCmd,
		dropboxLogoutCmd,
	)

	configCmd.AddCommand(
		configShowCmd,
		configSetCmd,
		configPathCmd,
	)
}
