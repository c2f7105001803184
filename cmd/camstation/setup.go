package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JacobGitz/Amscope-Docker/internal/camera"
	"github.com/JacobGitz/Amscope-Docker/internal/prompt"
	"github.com/JacobGitz/Amscope-Docker/internal/service/setup"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

func commandSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	composeFile := fs.String("compose", "", "Compose file to register the camera in")
	image := fs.String("image", "", "Image repository name")
	tag := fs.String("tag", "", "Image tag, unique per camera")
	port := fs.Int("port", 0, "Host port (0 picks the first free one)")
	serial := fs.String("serial", "", "Camera serial number (skips the device menu)")
	build := fs.Bool("build", true, "Build the image after registering")
	fs.Parse(args)

	cfg := config.LoadStation()
	log := newLogger()
	p := prompt.New(os.Stdin, os.Stdout)

	device, err := chooseDevice(cfg, p, *serial)
	if err != nil {
		return err
	}

	path, err := chooseComposeFile(p, cfg, *composeFile)
	if err != nil {
		return err
	}

	imageName := *image
	imageTag := *tag
	if imageName == "" {
		if imageName, err = askOrDefault(p, "Image name", cfg.DefaultImage); err != nil {
			return err
		}
	}
	if imageTag == "" {
		if imageTag, err = askOrDefault(p, "Image tag", cfg.DefaultTag); err != nil {
			return err
		}
	}

	cli, err := newDocker(cfg)
	if err != nil {
		return err
	}
	defer cli.Close()

	svc := setup.New(cli, log, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	res, err := svc.Apply(ctx, setup.Request{
		ComposeFile: path,
		Image:       imageName,
		Tag:         imageTag,
		HostPort:    *port,
		Device:      device,
		Build:       *build,
	}, streamOutput)
	if err != nil {
		return err
	}

	fmt.Printf("registered %s on port %d (image %s)\n", res.ServiceName, res.HostPort, res.Image)
	fmt.Printf("device config: %s\n", res.ConfigPath)
	fmt.Printf("compose file:  %s\n", res.ComposeFile)
	return nil
}

// chooseDevice enumerates cameras and resolves the one to register, either
// by the given serial or through a menu.
func chooseDevice(cfg config.Station, p *prompt.Prompter, serial string) (camera.Device, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.IdentifierTimeout+10*time.Second)
	defer cancel()

	enum := newEnumerator(cfg, newLogger())
	devices, err := enum.Enumerate(ctx, camera.Filter{})
	if err != nil {
		return camera.Device{}, err
	}
	if len(devices) == 0 {
		return camera.Device{}, fmt.Errorf("no cameras found; is the device plugged in?")
	}

	if serial != "" {
		want := camera.CanonicalSerial(serial)
		for _, dev := range devices {
			if camera.CanonicalSerial(dev.Serial) == want {
				return dev, nil
			}
		}
		return camera.Device{}, fmt.Errorf("no camera with serial %s", serial)
	}

	if len(devices) == 1 {
		return devices[0], nil
	}
	if !prompt.Interactive() {
		return camera.Device{}, fmt.Errorf("multiple cameras found, pass --serial")
	}
	items := make([]string, len(devices))
	for i, dev := range devices {
		items[i] = fmt.Sprintf("%s (serial %s)", dev.Name, dev.Serial)
	}
	idx, err := p.Menu("Select a camera:", items)
	if err != nil {
		return camera.Device{}, err
	}
	return devices[idx], nil
}

func askOrDefault(p *prompt.Prompter, question, def string) (string, error) {
	if !prompt.Interactive() {
		return def, nil
	}
	return p.Ask(question, def)
}
