package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/course-intel/internal/contact"
)

var blocklistCmd = &cobra.Command{
	Use:   "blocklist",
	Short: "Manage the duplicate person-id block-list",
}

var blocklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every blocked person id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listBlocklist(os.Stdout, cfg.Blocklist.Path, cfg.Blocklist.PersonIDs)
	},
}

var blocklistAddCmd = &cobra.Command{
	Use:   "add <person_id>",
	Short: "Block a person id in the block-list file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		added, err := contact.AppendBlocklistFile(cfg.Blocklist.Path, args[0])
		if err != nil {
			return err
		}
		if added {
			zap.L().Info("blocklist: person id added", zap.String("person_id", args[0]), zap.String("path", cfg.Blocklist.Path))
		}
		fmt.Fprintf(os.Stdout, "%s blocked (%s)\n", args[0], cfg.Blocklist.Path)
		return nil
	},
}

func init() {
	blocklistCmd.AddCommand(blocklistListCmd, blocklistAddCmd)
	rootCmd.AddCommand(blocklistCmd)
}

func listBlocklist(w io.Writer, path string, extra []string) error {
	bl, err := contact.LoadBlocklist(path, extra)
	if err != nil {
		return err
	}
	for _, id := range bl.IDs() {
		fmt.Fprintln(w, id)
	}
	return nil
}
