package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initAnswers collects the interactive form results.
type initAnswers struct {
	localURL     string
	apiKey       string
	bind         string
	bearerToken  string
	enableImages bool
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively create a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "llmbridge.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", path)
			}

			answers := initAnswers{
				localURL: "http://localhost:11964",
				bind:     "127.0.0.1:8080",
			}

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Local endpoint URL").
						Description("Base URL of the local model server (models with the local/ prefix)").
						Value(&answers.localURL),
					huh.NewInput().
						Title("Aggregator API key").
						Description("Leave empty to route only local models").
						EchoMode(huh.EchoModePassword).
						Value(&answers.apiKey),
				),
				huh.NewGroup(
					huh.NewInput().
						Title("Gateway bind address").
						Value(&answers.bind),
					huh.NewInput().
						Title("Gateway bearer token").
						Description("Leave empty to disable authentication").
						EchoMode(huh.EchoModePassword).
						Value(&answers.bearerToken),
					huh.NewConfirm().
						Title("Enable image generation storage?").
						Value(&answers.enableImages),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			data, err := renderConfig(answers)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Start with: llmbridge start --config", path)
			return nil
		},
	}
	return cmd
}

// renderConfig builds the YAML document from the form answers.
func renderConfig(a initAnswers) ([]byte, error) {
	type gatewayAuth struct {
		BearerToken string `yaml:"bearer_token,omitempty"`
	}
	type gatewayCfg struct {
		Bind string       `yaml:"bind"`
		Auth *gatewayAuth `yaml:"auth,omitempty"`
	}
	type localCfg struct {
		BaseURL string `yaml:"base_url"`
	}
	type aggregatorCfg struct {
		APIKey string `yaml:"api_key,omitempty"`
	}

	doc := struct {
		Version   string         `yaml:"version"`
		Providers []string       `yaml:"providers"`
		Modules   map[string]any `yaml:"modules"`
	}{
		Version:   "1",
		Providers: []string{"local", "aggregator"},
		Modules:   map[string]any{},
	}

	doc.Modules["provider.local"] = localCfg{BaseURL: a.localURL}
	doc.Modules["provider.aggregator"] = aggregatorCfg{APIKey: a.apiKey}

	gw := gatewayCfg{Bind: a.bind}
	if a.bearerToken != "" {
		gw.Auth = &gatewayAuth{BearerToken: a.bearerToken}
	}
	doc.Modules["gateway.http"] = gw

	if a.enableImages {
		doc.Modules["resource.sqlite"] = map[string]any{}
	}

	return yaml.Marshal(doc)
}
