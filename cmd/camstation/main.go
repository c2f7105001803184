package main

import (
	"fmt"
	"os"

	"log/slog"

	"github.com/JacobGitz/Amscope-Docker/internal/camera"
	"github.com/JacobGitz/Amscope-Docker/internal/compose"
	"github.com/JacobGitz/Amscope-Docker/internal/docker"
	"github.com/JacobGitz/Amscope-Docker/internal/prompt"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
	"github.com/JacobGitz/Amscope-Docker/pkg/logger"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "cameras":
		err = commandCameras(args)
	case "setup":
		err = commandSetup(args)
	case "launch":
		err = commandLaunch(args)
	case "save":
		err = commandSave(args)
	case "load":
		err = commandLoad(args)
	case "catalog":
		err = commandCatalog(args)
	case "serve":
		err = commandServe(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return logger.NewText(os.Stderr, slog.LevelInfo)
}

func newDocker(cfg config.Station) (*docker.Client, error) {
	return docker.New(cfg.DockerHost)
}

func newEnumerator(cfg config.Station, log *slog.Logger) *camera.Enumerator {
	return camera.NewEnumerator(log,
		&camera.VendorProvider{Bin: cfg.IdentifierBin, Timeout: cfg.IdentifierTimeout},
		&camera.SysfsProvider{},
	)
}

// streamOutput forwards docker build/load progress to the terminal.
func streamOutput(line string) {
	fmt.Println(line)
}

// chooseComposeFile resolves a compose file path: the explicit flag, the
// only file under the root, or a menu when there are several.
func chooseComposeFile(p *prompt.Prompter, cfg config.Station, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	paths, err := compose.FindFiles(cfg.Root)
	if err != nil {
		return "", err
	}
	switch len(paths) {
	case 0:
		return "", fmt.Errorf("no compose files found under %s", cfg.Root)
	case 1:
		return paths[0], nil
	}
	if !prompt.Interactive() {
		return "", fmt.Errorf("multiple compose files under %s, pass --compose", cfg.Root)
	}
	idx, err := p.Menu("Select a compose file:", paths)
	if err != nil {
		return "", err
	}
	return paths[idx], nil
}

func printUsage() {
	fmt.Printf("camstation %s\n\n", buildVersion)
	fmt.Print(`Usage:
	camstation cameras [--json] [--vid 0x0547] [--pid id] [--provider vendor|sysfs|all]
	camstation setup [--compose file] [--image name] [--tag tag] [--port N] [--serial sn] [--build=false]
	camstation launch [--compose file] [--rebuild] [--no-open]
	camstation save [--image ref] [--name file.tar] [--overwrite]
	camstation load [--file file.tar] [--retag repo:tag]
	camstation catalog [--json]
	camstation serve
	camstation version
`)
}

func printVersion() {
	fmt.Println(buildVersion)
}
