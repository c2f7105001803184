package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JacobGitz/Amscope-Docker/internal/prompt"
	"github.com/JacobGitz/Amscope-Docker/internal/service/archive"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

func commandSave(args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	image := fs.String("image", "", "Image reference to archive (repo:tag)")
	name := fs.String("name", "", "Archive file name (default derived from the reference)")
	overwrite := fs.Bool("overwrite", false, "Replace an existing archive")
	fs.Parse(args)

	cfg := config.LoadStation()
	cli, err := newDocker(cfg)
	if err != nil {
		return err
	}
	defer cli.Close()
	svc := archive.New(cli, cfg.ImageDir, newLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	ref := *image
	if ref == "" {
		images, err := svc.Images(ctx)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return fmt.Errorf("no images in the daemon to save")
		}
		if !prompt.Interactive() {
			return fmt.Errorf("pass --image to choose which image to save")
		}
		p := prompt.New(os.Stdin, os.Stdout)
		idx, err := p.Menu("Select an image to archive:", images)
		if err != nil {
			return err
		}
		ref = images[idx]
	}

	path, err := svc.Save(ctx, ref, *name, *overwrite)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s -> %s\n", ref, path)
	return nil
}

func commandLoad(args []string) error {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	file := fs.String("file", "", "Archive file (relative names resolve in the archive dir)")
	retag := fs.String("retag", "", "Additional reference to tag the loaded image with")
	fs.Parse(args)

	cfg := config.LoadStation()
	cli, err := newDocker(cfg)
	if err != nil {
		return err
	}
	defer cli.Close()
	svc := archive.New(cli, cfg.ImageDir, newLogger())

	path := *file
	if path == "" {
		names, err := svc.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no archives in %s", svc.Dir())
		}
		if !prompt.Interactive() {
			return fmt.Errorf("pass --file to choose which archive to load")
		}
		p := prompt.New(os.Stdin, os.Stdout)
		idx, err := p.Menu("Select an archive to load:", names)
		if err != nil {
			return err
		}
		path = names[idx]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	ref, err := svc.Load(ctx, path, streamOutput)
	if err != nil {
		return err
	}
	if ref != "" {
		fmt.Printf("loaded %s\n", ref)
	} else {
		fmt.Println("archive loaded (daemon reported no reference)")
	}

	if *retag != "" {
		if err := svc.Retag(ctx, ref, *retag); err != nil {
			return err
		}
		fmt.Printf("tagged %s as %s\n", ref, *retag)
	}
	return nil
}
