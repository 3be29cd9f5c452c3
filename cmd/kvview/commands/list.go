package commands

import "github.com/spf13/cobra"

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "list the entries under a prefix such as '[\"users\"]'",
	Long:  "list prints one page of entries under prefix, or every page with --all. The prefix defaults to [] which lists everything.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		prefix := "[]"
		if len(args) == 1 {
			prefix = args[0]
		}
		cursor, _ := cmd.Flags().GetString("cursor")
		all, _ := cmd.Flags().GetBool("all")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { err = e.close(err) }()

		res, err := e.svc.List(cmd.Context(), prefix, cursor)
		if err != nil {
			return err
		}
		if !all {
			return printResult(cmd, res)
		}
		items := res.Items
		for res.NextCursor != "" {
			if res, err = e.svc.List(cmd.Context(), prefix, res.NextCursor); err != nil {
				return err
			}
			items = append(items, res.Items...)
		}
		res.Items, res.Cursor = items, ""
		return printResult(cmd, res)
	},
}

func init() {
	listCmd.Flags().String("cursor", "", "resume after this cursor")
	listCmd.Flags().Bool("all", false, "follow cursors until the prefix is exhausted")
	listCmd.Flags().Int("limit", 10, "entries per page")
	addOutputFlag(listCmd)
	rootCmd.AddCommand(listCmd)
}
