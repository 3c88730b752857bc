package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	weave "github.com/iov-one/trustd"
	"github.com/spf13/cobra"
)

// addrCmd prints every representation of the given addresses. A condition
// is accepted as well and converted to the address it owns.
func addrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addr [address or condition...]",
		Short: "Print addresses in hex and bech32 form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printAddresses(cmd.OutOrStdout(), args)
		},
	}
}

func printAddresses(out io.Writer, inputs []string) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tHEX\tBECH32")
	for _, in := range inputs {
		addr, err := weave.ParseAddress(in)
		if err != nil {
			cond, cerr := weave.ParseCondition(in)
			if cerr != nil {
				return fmt.Errorf("%s: %s", in, err)
			}
			addr = cond.Address()
		}
		b32, err := addr.Bech32()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", in, addr, b32)
	}
	return tw.Flush()
}
