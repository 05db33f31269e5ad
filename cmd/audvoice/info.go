// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ik5/audvoice"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the format and length of an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := audvoice.LoadFile(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "file:        %s\n", args[0])
			fmt.Fprintf(w, "channels:    %d\n", buf.ChannelCount())
			fmt.Fprintf(w, "sample rate: %d Hz\n", buf.SampleRate())
			fmt.Fprintf(w, "frames:      %d\n", buf.SampleCount()/buf.ChannelCount())
			fmt.Fprintf(w, "duration:    %s\n", buf.Duration())

			return nil
		},
	}
}
