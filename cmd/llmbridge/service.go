package main

import (
	"fmt"
	"log/slog"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/Phonezzzz/llmbridge/pkg/app"
)

// program adapts the application loop to the kardianos service interface.
type program struct {
	configPath string
	done       chan struct{}
}

// Start implements service.Interface. The service manager expects Start to
// return promptly, so the run loop goes to a goroutine.
func (p *program) Start(_ service.Service) error {
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		err := app.Run(app.RunParams{
			ConfigPath: p.configPath,
			Version:    version,
			Commit:     commit,
			Date:       date,
			LogLevel:   slog.LevelInfo,
		})
		if err != nil {
			fmt.Println("llmbridge exited:", err)
		}
	}()
	return nil
}

// Stop implements service.Interface. app.Run stops on SIGTERM, which the
// service manager sends before calling Stop; this just waits it out.
func (p *program) Stop(_ service.Service) error {
	if p.done != nil {
		<-p.done
	}
	return nil
}

func serviceCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage llmbridge as a system service",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	newService := func() (service.Service, error) {
		args := []string{"service", "run"}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		return service.New(&program{configPath: configPath}, &service.Config{
			Name:        "llmbridge",
			DisplayName: "llmbridge",
			Description: "Routing and streaming bridge for LLM providers",
			Arguments:   args,
		})
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install llmbridge as a system service",
			RunE: func(_ *cobra.Command, _ []string) error {
				svc, err := newService()
				if err != nil {
					return err
				}
				if err := svc.Install(); err != nil {
					return err
				}
				fmt.Println("Service installed.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove the llmbridge system service",
			RunE: func(_ *cobra.Command, _ []string) error {
				svc, err := newService()
				if err != nil {
					return err
				}
				if err := svc.Uninstall(); err != nil {
					return err
				}
				fmt.Println("Service removed.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run under the service manager (used by install)",
			RunE: func(_ *cobra.Command, _ []string) error {
				svc, err := newService()
				if err != nil {
					return err
				}
				return svc.Run()
			},
		},
	)
	return cmd
}
