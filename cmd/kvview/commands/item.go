package commands

import (
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview/browse"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "print the entry stored under key, for example '[\"users\",\"1\"]'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { err = e.close(err) }()

		res, err := e.svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "delete the entry stored under key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { err = e.close(err) }()

		key, err := e.svc.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, browse.GetResult{Query: key, Valid: true})
	},
}

var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "store value under key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		value := []byte(args[1])
		if b64, _ := cmd.Flags().GetBool("base64"); b64 {
			if value, err = base64.StdEncoding.DecodeString(args[1]); err != nil {
				return errors.Wrap(err, "value")
			}
		}
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { err = e.close(err) }()

		key, err := e.svc.Put(cmd.Context(), args[0], value)
		if err != nil {
			return err
		}
		e.log.WithField("key", key).Info("stored")
		return nil
	},
}

func init() {
	addOutputFlag(getCmd)
	addOutputFlag(deleteCmd)
	putCmd.Flags().Bool("base64", false, "value is standard base64")
	rootCmd.AddCommand(getCmd, deleteCmd, putCmd)
}
