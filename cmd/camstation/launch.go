package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/JacobGitz/Amscope-Docker/internal/prompt"
	"github.com/JacobGitz/Amscope-Docker/internal/service/archive"
	"github.com/JacobGitz/Amscope-Docker/internal/service/launch"
	"github.com/JacobGitz/Amscope-Docker/pkg/config"
)

func commandLaunch(args []string) error {
	fs := flag.NewFlagSet("launch", flag.ExitOnError)
	composeFile := fs.String("compose", "", "Compose file to launch")
	rebuild := fs.Bool("rebuild", false, "Rebuild images even when they exist")
	noOpen := fs.Bool("no-open", false, "Do not open the backend docs in a browser")
	fs.Parse(args)

	cfg := config.LoadStation()
	log := newLogger()
	p := prompt.New(os.Stdin, os.Stdout)

	path, err := chooseComposeFile(p, cfg, *composeFile)
	if err != nil {
		return err
	}

	cli, err := newDocker(cfg)
	if err != nil {
		return err
	}
	defer cli.Close()

	archives := archive.New(cli, cfg.ImageDir, log)
	svc := launch.New(cli, archives, log, cfg)

	plan, err := svc.Plan(path)
	if err != nil {
		return err
	}
	selections, err := assignRoles(p, plan)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	for i := range selections {
		selections[i].Rebuild = *rebuild
		if *rebuild || !prompt.Interactive() {
			continue
		}
		present, err := svc.ImagePresent(ctx, plan.File, selections[i].Name)
		if err != nil {
			return err
		}
		if present {
			ok, err := p.Confirm(fmt.Sprintf("Image for %s exists, rebuild it?", selections[i].Name))
			if err != nil {
				return err
			}
			selections[i].Rebuild = ok
		}
	}

	res, err := svc.Run(ctx, launch.Request{File: plan.File, Selections: selections}, streamOutput)
	if err != nil {
		return err
	}

	for _, started := range res.Started {
		label := string(started.Role)
		if started.Role == launch.RoleBackend && !started.Healthy {
			label += " (health check failed)"
		}
		fmt.Printf("started %s [%s]", started.Name, label)
		if started.URL != "" {
			fmt.Printf(" -> %s", started.URL)
		}
		fmt.Println()
		if started.URL != "" && !*noOpen {
			if err := openBrowser(started.URL); err != nil {
				log.Warn("could not open browser", "url", started.URL, "error", err)
			}
		}
	}
	return nil
}

// assignRoles maps the plan's services to launch selections. Two services
// launch with the pre-assigned roles; otherwise the operator picks the
// backend and everything else rides along as frontend.
func assignRoles(p *prompt.Prompter, plan launch.Plan) ([]launch.Selection, error) {
	if plan.Backend != "" {
		return []launch.Selection{
			{Name: plan.Backend, Role: launch.RoleBackend},
			{Name: plan.Frontend, Role: launch.RoleFrontend},
		}, nil
	}
	if len(plan.Names) == 1 {
		return []launch.Selection{{Name: plan.Names[0], Role: launch.RoleBackend}}, nil
	}
	if !prompt.Interactive() {
		return nil, fmt.Errorf("cannot assign roles to %d services without a terminal", len(plan.Names))
	}
	idx, err := p.Menu("Which service is the camera backend?", plan.Names)
	if err != nil {
		return nil, err
	}
	selections := make([]launch.Selection, 0, len(plan.Names))
	for i, name := range plan.Names {
		role := launch.RoleFrontend
		if i == idx {
			role = launch.RoleBackend
		}
		selections = append(selections, launch.Selection{Name: name, Role: role})
	}
	return selections, nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
