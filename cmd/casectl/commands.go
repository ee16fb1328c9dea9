package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"casetrack/internal/models"
	"casetrack/internal/prediction"
	"casetrack/internal/service"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.Close()

			fmt.Fprintf(e.out, "schema is up to date (%s)\n", e.cfg.DatabaseType)
			return nil
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var req service.NewUser
	var role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an admin or case worker account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.Close()

			req.Role = models.Role(role)
			// create-user never issues tokens
			auth := service.NewAuthService(e.db, nil, e.logger)
			user, err := auth.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(e.out, "created %s %q with id %d\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters (required)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCaseWorker), "admin or case_worker")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export users, clients and cases to JSON or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "xlsx" {
				return fmt.Errorf("invalid --format %q: want json or xlsx", format)
			}
			if output == "" {
				output = fmt.Sprintf("backup_%s.%s", time.Now().Format("20060102_150405"), format)
			}

			e, err := openEnv(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.Close()

			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()

			backup := service.NewBackupService(e.db, e.logger)
			if format == "xlsx" {
				err = backup.ExportXLSX(cmd.Context(), f)
			} else {
				err = backup.ExportJSON(cmd.Context(), f)
			}
			if err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			info, err := os.Stat(output)
			if err != nil {
				return err
			}
			e.logger.Info("export complete", zap.String("file", output), zap.Int64("bytes", info.Size()))
			fmt.Fprintf(e.out, "exported to %s (%.2f MB)\n", output, float64(info.Size())/1024/1024)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or xlsx")
	cmd.Flags().StringVar(&output, "output", "", "Output file (default backup_YYYYMMDD_HHMMSS.<format>)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var input string
	var clearData, yes bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Restore a JSON export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearData && !yes {
				fmt.Fprint(cmd.OutOrStdout(), "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(answer) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "import cancelled")
					return nil
				}
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", input, err)
			}
			defer f.Close()

			e, err := openEnv(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.Close()

			stats, err := service.NewBackupService(e.db, e.logger).ImportJSON(cmd.Context(), f, clearData)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Fprintf(e.out, "imported %d users, %d clients, %d cases\n", stats.Users, stats.Clients, stats.Cases)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Backup file (required)")
	cmd.Flags().BoolVar(&clearData, "clear", false, "Delete existing data before import (destructive)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt for --clear")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newCheckModelsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "check-models",
		Short: "Parse every catalogued model file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, info := range prediction.Catalogue {
				path := filepath.Join(dir, info.Name+".yaml")
				if _, err := prediction.LoadModel(path); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %-18s %v\n", info.Name, err)
					continue
				}
				fmt.Fprintf(out, "ok   %-18s %s\n", info.Name, path)
			}
			if failed > 0 {
				return fmt.Errorf("%d model file(s) failed to load", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./models", "Directory holding <name>.yaml model files")
	return cmd
}
