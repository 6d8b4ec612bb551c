package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"scanorch/internal/config"
	"scanorch/pkg/domain"
	"scanorch/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// taskFile is the on-disk form of a scan task.
type taskFile struct {
	ID                 string                     `json:"id"`
	TargetURLs         []string                   `json:"targetUrls"`
	Credentials        *domain.CredentialEnvelope `json:"credentials"`
	ScanningDepth      int                        `json:"scanningDepth"`
	ProtocolTypes      []string                   `json:"protocolTypes"`
	SchedulingMetadata *domain.SchedulingMetadata `json:"schedulingMetadata"`
}

func (f taskFile) toDomain() (*domain.ScanTask, error) {
	task := &domain.ScanTask{
		ID:            domain.TaskID(f.ID),
		TargetURLs:    f.TargetURLs,
		ScanningDepth: f.ScanningDepth,
		Scheduling:    f.SchedulingMetadata,
	}
	for _, name := range f.ProtocolTypes {
		p, err := domain.ParseProtocol(name)
		if err != nil {
			p = domain.Protocol(name)
		}
		task.Protocols = append(task.Protocols, p)
	}
	if f.Credentials != nil {
		cred, err := f.Credentials.ToCredential()
		if err != nil {
			return nil, fmt.Errorf("could not decode credentials: %w", err)
		}
		task.Credential = cred
	}

	return task, nil
}

func readTaskFile(path string) (*domain.ScanTask, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open task file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var tf taskFile
	if err := json.NewDecoder(r).Decode(&tf); err != nil {
		return nil, fmt.Errorf("could not parse task file: %w", err)
	}

	return tf.toDomain()
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b)) //nolint: forbidigo
}

// runCommand constructs the 'run' subcommand that executes one task
// synchronously and prints its response and result.
func runCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs a scan task from a JSON file and prints the result",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			path, _ := cmd.Flags().GetString("file")
			task, err := readTaskFile(path)
			if err != nil {
				logger.Fatal(ctx, "could not read scan task", zap.Error(err))
			}

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			orch, err := newOrchestrator(ctx, cfg, strg)
			if err != nil {
				logger.Fatal(ctx, "could not create orchestrator", zap.Error(err))
			}

			resp, err := orch.Run(ctx, task)
			printJSON(resp)
			if err != nil {
				logger.Error(ctx, "scan task failed", zap.Error(err))

				return
			}
			if resp.ResultID == "" {
				return
			}

			results, err := orch.Results(ctx, resp.ScanTaskID)
			if err != nil {
				logger.Error(ctx, "could not load scan results", zap.Error(err))

				return
			}
			for i := range results {
				if results[i].ID == resp.ResultID {
					printJSON(results[i])
				}
			}
		},
	}

	cmd.Flags().StringP("file", "f", "-", "Scan task JSON file, - for stdin")

	return cmd
}
