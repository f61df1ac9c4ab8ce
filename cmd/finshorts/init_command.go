package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"finshorts/config"

	"github.com/spf13/cobra"
)

const envExample = `# finshorts secrets. Copy to .env and fill in.
COHERE_API_KEY=
OPENAI_API_KEY=
ELEVENLABS_API_KEY=
ELEVENLABS_VOICE_ID=
PEXELS_API_KEY=
IMAGE_API_KEY=

# Optional infrastructure
REDIS_ADDR=
REDIS_PASS=
S3_BUCKET=
S3_REGION=
S3_PREFIX=
KAFKA_BOOTSTRAP_SERVERS=
KAFKA_EVENTS_TOPIC=finshorts.stage-events
KAFKA_NEWS_TOPIC=finshorts.news
PORT=8080
`

func newInitCommand() *cobra.Command {
	var dir string
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config.yaml and .env.example",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			files := []struct {
				name string
				data []byte
			}{
				{"config.yaml", config.DefaultConfigYAML},
				{".env.example", []byte(envExample)},
			}
			for _, f := range files {
				path := filepath.Join(dir, f.name)
				if err := writeNew(path, f.data, force); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write into")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func writeNew(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
