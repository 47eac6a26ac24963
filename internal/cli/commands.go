package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var detectorNames = [...]string{"Pout", "P1", "P2", "P3", "P4", "Vext"}

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show inputs, detectors and option of the connected CT400",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			info, err := c.Info()
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connected: %v\n", info.Connected)
			fmt.Fprintf(out, "Number of Inputs: %d\n", info.Inputs)
			fmt.Fprintf(out, "Number of Detectors: %d\n", info.Detectors)
			fmt.Fprintf(out, "CT400 Option: %s\n", info.Type)
			return nil
		},
	}
}

func newPowerCmd(opts *rootOptions) *cobra.Command {
	var dets []int32
	cmd := &cobra.Command{
		Use:   "power",
		Short: "Read instantaneous detector powers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			reading, err := c.ReadPower()
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), reading)
			}
			for _, d := range dets {
				if d < 0 || int(d) >= len(detectorNames) {
					return fmt.Errorf("invalid detector %d", d)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %.3f dBm\n", detectorNames[d], reading.Select(d)[0])
			}
			return nil
		},
	}
	cmd.Flags().Int32SliceVar(&dets, "det", []int32{0, 1}, "detectors to print (0=Pout, 1-4, 5=Vext)")
	return cmd
}

func newLaserCmd(opts *rootOptions) *cobra.Command {
	laser := &cobra.Command{
		Use:   "laser",
		Short: "Switch the tunable laser on or off",
	}

	var power float64
	on := &cobra.Command{
		Use:   "on WAVELENGTH_NM",
		Short: "Turn the laser on at a wavelength (nm)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wav, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid wavelength %q: %w", args[0], err)
			}
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.LaserOn(wav, power); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Laser on at %.3f nm\n", wav)
			return nil
		},
	}
	on.Flags().Float64Var(&power, "power", 0, "laser power in mW (0 = default power)")

	off := &cobra.Command{
		Use:   "off",
		Short: "Turn the laser off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.LaserOff(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Laser switched off")
			return nil
		},
	}

	laser.AddCommand(on, off)
	return laser
}

func formatDetectors(dets []int32) string {
	parts := make([]string, len(dets))
	for i, d := range dets {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}
