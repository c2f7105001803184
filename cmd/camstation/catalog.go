package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/JacobGitz/Amscope-Docker/internal/service/catalog"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

func commandCatalog(args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the catalog as JSON")
	fs.Parse(args)

	cfg := config.LoadStation()
	res, err := catalog.New(cfg).Build()
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if len(res.Entries) == 0 {
		fmt.Println("no camera services registered")
	} else {
		fmt.Printf("%-10s %-36s %-6s %-8s %s\n", "SERVICE", "IMAGE", "PORT", "ARCHIVE", "FILE")
		for _, entry := range res.Entries {
			port := "-"
			if entry.HostPort != 0 {
				port = fmt.Sprintf("%d", entry.HostPort)
			}
			archived := "no"
			if entry.ArchivePresent {
				archived = "yes"
			}
			fmt.Printf("%-10s %-36s %-6s %-8s %s\n", entry.Service, entry.Image, port, archived, entry.ComposeFile)
		}
	}

	if res.Device != nil {
		fmt.Printf("\nstaged device config: %s (serial %s)\n", res.Device.DeviceName, res.Device.SerialNumber)
	}
	return nil
}
