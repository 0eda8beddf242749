package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	containerTypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"payment-gateway/internal/observability"
)

var colorPalette = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
	color.New(color.FgRed),
}

func main() {
	var (
		composePath string
		only        []string
		grep        string
	)

	rootCmd := &cobra.Command{
		Use:   "log-streamer",
		Short: "Stream colored logs of every docker-compose service",
		Long: "Stream colored logs of every docker-compose service. Use --grep with a payment id\n" +
			"to follow one payment through the gateway, the settlement worker and the auditor.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := observability.SetupLogger("development")

			raw, err := os.ReadFile(composePath)
			if err != nil {
				return fmt.Errorf("read %s: %w", composePath, err)
			}
			services, err := composeServices(raw, only)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
			if err != nil {
				return fmt.Errorf("create docker client: %w", err)
			}
			defer func() {
				if err := cli.Close(); err != nil {
					logger.Warn("error closing docker client", "error", err)
				}
			}()

			containers, err := cli.ContainerList(ctx, containerTypes.ListOptions{})
			if err != nil {
				return fmt.Errorf("list containers: %w", err)
			}
			ids := make(map[string]string, len(containers))
			for _, c := range containers {
				ids[c.Labels["com.docker.compose.service"]] = c.ID
			}

			logger.Info("starting log streams", "services", services)
			out := &lockedWriter{w: os.Stdout}
			var wg sync.WaitGroup
			for i, name := range services {
				id, ok := ids[name]
				if !ok {
					logger.Warn("container for service not found", "service", name)
					continue
				}
				wg.Add(1)
				go func(name, id string, c *color.Color) {
					defer wg.Done()
					if err := streamServiceLogs(ctx, cli, id, name, c, grep, out); err != nil && ctx.Err() == nil {
						logger.Warn("log stream ended", "service", name, "error", err)
					}
				}(name, id, colorPalette[i%len(colorPalette)])
			}

			wg.Wait()
			logger.Info("all log streams finished")
			return nil
		},
	}
	rootCmd.Flags().StringVar(&composePath, "compose", "docker-compose.yml", "Path to the compose file")
	rootCmd.Flags().StringSliceVar(&only, "service", nil, "Only stream these services")
	rootCmd.Flags().StringVar(&grep, "grep", "", "Only print lines containing this text")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func streamServiceLogs(ctx context.Context, cli *client.Client, containerID, serviceName string, c *color.Color, grep string, out io.Writer) error {
	logReader, err := cli.ContainerLogs(ctx, containerID, containerTypes.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       "50",
	})
	if err != nil {
		return err
	}
	defer logReader.Close()

	// Non-TTY container logs are multiplexed; demux into one pipe.
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, logReader)
		pw.CloseWithError(err)
	}()

	prefix := c.Sprintf("[%s]", serviceName)
	scanner := bufio.NewScanner(pr)
	for scanner.Scan() {
		if line := scanner.Text(); matches(line, grep) {
			fmt.Fprintf(out, "%-25s %s\n", prefix, line)
		}
	}
	return scanner.Err()
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
