package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"scanorch/pkg/logger"
)

// passwdCommand constructs the 'passwd' subcommand that prints the bcrypt
// hash of a password read from stdin, for use in auth.basicUsers.
func passwdCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Hashes a password read from stdin for basic credentials",
		Annotations: map[string]string{
			skipConfig: "",
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			cost, _ := cmd.Flags().GetInt("cost")

			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				logger.Fatal(ctx, "could not read password", zap.Error(err))
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				logger.Fatal(ctx, "password must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				logger.Fatal(ctx, "could not hash password", zap.Error(err))
			}

			fmt.Println(string(hash)) //nolint: forbidigo
		},
	}

	cmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")

	return cmd
}
