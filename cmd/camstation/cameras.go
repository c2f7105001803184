package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JacobGitz/Amscope-Docker/internal/camera"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

func commandCameras(args []string) error {
	fs := flag.NewFlagSet("cameras", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the device list as JSON")
	vid := fs.String("vid", "", "Filter by USB vendor id, e.g. 0x0547")
	pid := fs.String("pid", "", "Filter by USB product id")
	provider := fs.String("provider", "all", "Discovery backend (vendor|sysfs|all)")
	fs.Parse(args)

	cfg := config.LoadStation()
	enum, err := pickEnumerator(cfg, *provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.IdentifierTimeout+10*time.Second)
	defer cancel()

	devices, err := enum.Enumerate(ctx, camera.Filter{VendorID: *vid, ProductID: *pid})
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(devices)
	}

	if len(devices) == 0 {
		fmt.Println("no cameras found")
		return nil
	}
	fmt.Printf("%-5s %-24s %-18s %-8s %-8s %s\n", "INDEX", "NAME", "SERIAL", "VID", "PID", "SOURCE")
	for _, dev := range devices {
		fmt.Printf("%-5d %-24s %-18s %-8s %-8s %s\n",
			dev.Index, dev.Name, dev.Serial, dev.VendorID, dev.ProductID, dev.Source)
	}
	return nil
}

func pickEnumerator(cfg config.Station, provider string) (*camera.Enumerator, error) {
	log := newLogger()
	vendor := &camera.VendorProvider{Bin: cfg.IdentifierBin, Timeout: cfg.IdentifierTimeout}
	sysfs := &camera.SysfsProvider{}
	switch provider {
	case "vendor":
		return camera.NewEnumerator(log, vendor), nil
	case "sysfs":
		return camera.NewEnumerator(log, sysfs), nil
	case "all", "":
		return camera.NewEnumerator(log, vendor, sysfs), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (expected vendor, sysfs or all)", provider)
	}
}
