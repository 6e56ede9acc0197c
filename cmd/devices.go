package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/smazurov/camsession/internal/camera"
	"github.com/smazurov/camsession/internal/devices"
	"github.com/smazurov/camsession/internal/uvc"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List connected capture devices",
		Long: `Lists the primary V4L2 capture node of every connected camera. ` +
			`With --probe each device is opened and its sizes per encoding family are listed via ffmpeg.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			found, err := devices.DefaultScanner().FindDevices()
			if err != nil {
				return fmt.Errorf("scan devices: %w", err)
			}
			return printDevices(cmd.OutOrStdout(), found, probe)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "Open each device and list supported sizes")
	return cmd
}

func printDevices(w io.Writer, found []devices.Info, probe bool) error {
	if len(found) == 0 {
		fmt.Fprintln(w, "No capture devices found")
		return nil
	}

	driver := uvc.NewDriver()
	for _, info := range found {
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Path, info.Name, info.ID)
		if info.StableID != "" {
			fmt.Fprintf(w, "  by-id: %s\n", info.StableID)
		}
		if !probe {
			continue
		}

		dev, err := driver.Open(info.Path)
		if err != nil {
			fmt.Fprintf(w, "  open failed: %v\n", err)
			continue
		}
		for _, fam := range camera.DefaultFamilies() {
			sizes, err := dev.SupportedSizes(fam.Encoding)
			if err != nil {
				fmt.Fprintf(w, "  %s: %v\n", fam.Encoding, err)
				continue
			}
			names := make([]string, len(sizes))
			for i, s := range sizes {
				names[i] = s.String()
			}
			fmt.Fprintf(w, "  %s: %s\n", fam.Encoding, strings.Join(names, " "))
		}
		if err := dev.Close(); err != nil {
			return fmt.Errorf("close %s: %w", info.Path, err)
		}
	}
	return nil
}
