package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhuss/askgate/pkg/textutil"
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Rewrite client source files in place",
}

var commentPrefix string

var stripCommentsCmd = &cobra.Command{
	Use:   "strip-comments FILE...",
	Short: "Remove whole-line comments from files",
	Long: `Remove every line whose first non-blank characters are the comment
prefix (default "//"). Comments after code on the same line are kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return rewriteAll(cmd, args, "comment lines removed", func(s string) (string, int, error) {
			out, n := textutil.StripLineComments(s, commentPrefix)
			return out, n, nil
		})
	},
}

var replaceInvitesCmd = &cobra.Command{
	Use:   "replace-invites CODE FILE...",
	Short: "Point every Discord invite link at a new invite code",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := args[0]
		return rewriteAll(cmd, args[1:], "invite links replaced", func(s string) (string, int, error) {
			return textutil.ReplaceInviteLinks(s, code)
		})
	},
}

func init() {
	stripCommentsCmd.Flags().StringVar(&commentPrefix, "prefix", "//", "comment prefix")
	textCmd.AddCommand(stripCommentsCmd, replaceInvitesCmd)
	rootCmd.AddCommand(textCmd)
}

// rewriteAll applies fn to each file and prints one summary line per file.
// It stops at the first failure.
func rewriteAll(cmd *cobra.Command, paths []string, what string, fn func(string) (string, int, error)) error {
	total := 0
	for _, path := range paths {
		n, err := textutil.RewriteFile(path, fn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d %s\n", path, n, what)
		total += n
	}
	if len(paths) > 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "total: %d %s in %d files\n", total, what, len(paths))
	}
	return nil
}
