package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	ct400 "github.com/iwtcode/ct400Adapter"
	"github.com/iwtcode/ct400Adapter/models"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	minNm      float64
	maxNm      float64
	powerMw    float64
	resPm      uint32
	speed      int32
	input      int32
	dets       []int32
	bnc        bool
	heterodyne bool
	sync       bool
	park       bool
	export     string
}

func (f *scanFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.minNm, "min", 1500, "start wavelength in nm")
	cmd.Flags().Float64Var(&f.maxNm, "max", 1630, "stop wavelength in nm")
	cmd.Flags().Float64Var(&f.powerMw, "power", 0, "laser power in mW (0 = default power)")
	cmd.Flags().Uint32Var(&f.resPm, "res", 1, "sampling resolution in pm (1-250)")
	cmd.Flags().Int32Var(&f.speed, "speed", 100, "sweep speed in nm/s (10-100)")
	cmd.Flags().Int32Var(&f.input, "input", 0, "laser input 1-4 (0 = CT400_LASER_INPUT)")
	cmd.Flags().Int32SliceVar(&f.dets, "det", []int32{1}, "detectors to read (1-4, 5=BNC)")
	cmd.Flags().BoolVar(&f.bnc, "bnc", false, "enable the external BNC input")
}

func (f *scanFlags) config(cfg *ct400.Config) models.ScanConfig {
	input := cfg.LaserInput
	if f.input != 0 {
		input = f.input
	}
	sc := models.ScanConfig{
		Laser: models.LaserConfig{
			Input:       input,
			Enabled:     true,
			GPIBAddress: cfg.GPIBAddress,
			Model:       cfg.LaserModel,
			MinNm:       cfg.LaserMinNm,
			MaxNm:       cfg.LaserMaxNm,
			Speed:       f.speed,
		},
		PowerMw:      f.powerMw,
		MinNm:        f.minNm,
		MaxNm:        f.maxNm,
		ResolutionPm: f.resPm,
	}
	for _, d := range f.dets {
		switch d {
		case 2:
			sc.Detectors.Detector2 = true
		case 3:
			sc.Detectors.Detector3 = true
		case 4:
			sc.Detectors.Detector4 = true
		case 5:
			sc.Detectors.External = true
		}
	}
	if f.bnc {
		sc.Detectors.External = true
	}
	return sc
}

func (f *scanFlags) request() models.ScanRequest {
	return models.ScanRequest{
		Detectors:   f.dets,
		IncludeSync: f.sync,
		Heterodyne:  f.heterodyne,
		ParkLaser:   f.park,
	}
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func newScanCmd(opts *rootOptions) *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a wavelength sweep and print or export the resampled traces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.config()
			c, err := ct400.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.ConfigureScan(f.config(cfg)); err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			res, err := c.Scan(ctx, f.request())
			if err != nil {
				return err
			}

			var files *models.ExportedFiles
			if f.export != "" {
				if files, err = c.ExportFiles(f.export, f.dets...); err != nil {
					return err
				}
			}

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), struct {
					Result *models.ScanResult    `json:"result"`
					Files  *models.ExportedFiles `json:"files,omitempty"`
				}{res, files})
			}
			printScanSummary(cmd, res, f.dets)
			if files != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Files written to %s\n", f.export)
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&f.heterodyne, "heterodyne", false, "report spectral lines found by heterodyne detection")
	cmd.Flags().BoolVar(&f.sync, "sync", false, "include raw (synchronous) arrays")
	cmd.Flags().BoolVar(&f.park, "park", false, "leave the laser on at 1550 nm after the sweep")
	cmd.Flags().StringVar(&f.export, "export", "", "directory for the vendor text files")
	return cmd
}

func printScanSummary(cmd *cobra.Command, res *models.ScanResult, dets []int32) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scan executed in %.2fs\n", res.Duration.Seconds())
	fmt.Fprintf(out, "Total number of points, discarded points, resampled points: %d, %d, %d\n",
		res.DataPoints, res.DiscardPoints, res.ResampledPoints)
	fmt.Fprintf(out, "Detectors: %s\n", formatDetectors(dets))
	for _, tr := range res.Detectors {
		lo, hi := minMax(tr.Power)
		fmt.Fprintf(out, "  D%d: min %.3f dBm, max %.3f dBm\n", tr.Detector, lo, hi)
	}
	for i, line := range res.Lines {
		fmt.Fprintf(out, "Spectral line #%d: %.4f\n", i+1, line)
	}
}

func minMax(v []float64) (float64, float64) {
	if len(v) == 0 {
		return 0, 0
	}
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}

func newCalibrateCmd(opts *rootOptions) *cobra.Command {
	calibrate := &cobra.Command{
		Use:   "calibrate",
		Short: "Update or reset detector calibration",
	}

	f := &scanFlags{}
	var det int32
	update := &cobra.Command{
		Use:   "update",
		Short: "Sweep with the output looped to a detector and store it as the 0 dB reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.config()
			c, err := ct400.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			f.dets = []int32{det}
			if _, err := c.ConfigureScan(f.config(cfg)); err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()
			if _, err := c.Scan(ctx, models.ScanRequest{Detectors: f.dets}); err != nil {
				return err
			}
			if err := c.UpdateCalibration(det); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Calibration for detector %d updated\n", det)
			return nil
		},
	}
	f.bind(update)
	update.Flags().Int32Var(&det, "detector", 1, "detector to calibrate (1-4)")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset all detector calibrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()
			if err := c.ResetCalibration(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Calibration reset")
			return nil
		},
	}

	calibrate.AddCommand(update, reset)
	return calibrate
}

func newMonitorCmd(opts *rootOptions) *cobra.Command {
	var (
		det      int32
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print the live power of one detector until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if det < 0 || int(det) >= len(detectorNames) {
				return fmt.Errorf("invalid detector %d", det)
			}
			if interval <= 0 {
				return fmt.Errorf("invalid interval %s: must be positive", interval)
			}
			c, err := opts.open()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			out := cmd.OutOrStdout()
			seen := 0
			var peak float64
			for r := range c.MonitorPower(ctx, interval) {
				if r.Err != nil {
					return r.Err
				}
				p := r.Reading.Select(det)[0]
				if seen == 0 || p > peak {
					peak = p
				}
				seen++
				if opts.json {
					if err := writeJSON(out, r.Reading); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(out, "Detector: %s | Current power: %.3f dBm | Max power: %.3f dBm\n", detectorNames[det], p, peak)
				}
				if count > 0 && seen >= count {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().Int32Var(&det, "det", 1, "detector (0=Pout, 1-4, 5=Vext)")
	cmd.Flags().DurationVar(&interval, "interval", 200*time.Millisecond, "polling interval")
	cmd.Flags().IntVar(&count, "count", 0, "stop after N readings (0 = until Ctrl-C)")
	return cmd
}
