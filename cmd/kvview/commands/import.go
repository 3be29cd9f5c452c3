package commands

import (
	"bufio"
	"encoding/base64"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rawbytedev/kvview/browse"
	"github.com/rawbytedev/kvview/keys"
	"github.com/spf13/cobra"
)

// importLine is one line of an import file:
//
//	{"key": ["users", 1], "value": "alice"}
//	{"key": ["blob"], "value": "AAEC", "base64": true}
type importLine struct {
	Key    jsoniter.RawMessage `json:"key"`
	Value  string              `json:"value"`
	Base64 bool                `json:"base64"`
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "load a JSON lines file of key-value records, - reads stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		in := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "import")
			}
			defer f.Close()
			in = f
		}
		records, err := readRecords(in)
		if err != nil {
			return err
		}
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { err = e.close(err) }()

		n, err := e.svc.Import(cmd.Context(), records, batchSize)
		e.log.WithField("records", n).Info("import finished")
		return err
	},
}

func readRecords(r io.Reader) ([]browse.Record, error) {
	var records []browse.Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var l importLine
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(text, &l); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		key, err := keys.Decode(string(l.Key))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		value := []byte(l.Value)
		if l.Base64 {
			if value, err = base64.StdEncoding.DecodeString(l.Value); err != nil {
				return nil, errors.Wrapf(err, "line %d: value", line)
			}
		}
		records = append(records, browse.Record{Key: key, Value: value})
	}
	return records, errors.Wrap(sc.Err(), "read import")
}

func init() {
	importCmd.Flags().Int("batch-size", 1000, "records per committed batch")
	rootCmd.AddCommand(importCmd)
}
