package commands

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "\t", SortKeys: false}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
}

func printResult(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("output")
	return writeResult(cmd.OutOrStdout(), format, v)
}

func writeResult(w io.Writer, format string, v any) error {
	switch format {
	case "", "json":
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "encode json")
		}
		_, err = fmt.Fprintf(w, "%s", pretty.PrettyOptions(data, prettyOptions))
		return err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		_, err = w.Write(data)
		return err
	}
	return errors.Errorf("unknown output format %q", format)
}
