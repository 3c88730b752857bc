package commands

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	weave "github.com/iov-one/trustd"
	"github.com/spf13/cobra"
)

// Example will be written out to a file, .json and .bin
// Filename should have no path and no extension
type Example struct {
	Filename string
	Obj      weave.Persistent
}

// TestGenCmd returns a command writing the examples into the directory given
// as the first argument, "testdata" by default.
func TestGenCmd(examples []Example) *cobra.Command {
	return &cobra.Command{
		Use:   "testgen [dir]",
		Short: "Write sample JSON and binary encodings of stored models",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outdir := "testdata"
			if len(args) > 0 {
				outdir = args[0]
			}
			return TestGen(examples, outdir)
		},
	}
}

// TestGen generates sample binary and json encodings
// of various objects to test against.
func TestGen(examples []Example, outdir string) error {
	err := os.MkdirAll(outdir, 0755)
	if err != nil {
		return err
	}

	for _, ex := range examples {
		// write json data
		js, err := json.Marshal(ex.Obj)
		if err != nil {
			return err
		}
		jsFile := filepath.Join(outdir, ex.Filename+".json")
		err = ioutil.WriteFile(jsFile, js, 0644)
		if err != nil {
			return err
		}

		// write binary data
		bin, err := ex.Obj.Marshal()
		if err != nil {
			return err
		}
		binFile := filepath.Join(outdir, ex.Filename+".bin")
		err = ioutil.WriteFile(binFile, bin, 0644)
		if err != nil {
			return err
		}
	}
	return nil
}
