package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rocketship-ai/shortcuts/internal/dsl"
	"github.com/rocketship-ai/shortcuts/internal/script"
)

// NewValidateCmd creates a new validate command
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file_or_directory]",
		Short: "Validate shortcut files against the JSON schema",
		Long: `Validate one or more shortcut files against the JSON schema and check that
their scripts compile. Nothing is sent and nothing is saved.

Examples:
  shortcuts validate shortcuts.yaml          # Validate a single file
  shortcuts validate ./shortcuts/            # Validate all YAML files in a directory
  shortcuts validate a.yaml b.yaml           # Validate multiple files`,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("please specify at least one file or directory to validate")
	}

	var files []string
	totalValid := 0
	totalInvalid := 0

	for _, arg := range args {
		stat, err := os.Stat(arg)
		if err != nil {
			Logger.Error("failed to access path", "path", arg, "error", err)
			totalInvalid++
			continue
		}

		if stat.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && (filepath.Ext(path) == ".yaml" || filepath.Ext(path) == ".yml") {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				Logger.Error("failed to scan directory", "path", arg, "error", err)
				totalInvalid++
				continue
			}
		} else {
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no YAML files found to validate")
	}

	Logger.Info("validating files", "count", len(files))

	executor := script.NewJavaScriptExecutor(script.WithLogger(Logger))
	for _, file := range files {
		if err := validateFile(executor, file); err != nil {
			Logger.Error("validation failed", "file", file, "error", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s: %v\n", file, err)
			totalInvalid++
		} else {
			Logger.Info("validation passed", "file", file)
			totalValid++
		}
	}

	Logger.Info("validation complete", "valid", totalValid, "invalid", totalInvalid, "total", len(files))

	if totalInvalid > 0 {
		return fmt.Errorf("validation failed for %d file(s)", totalInvalid)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ All %d file(s) passed validation\n", totalValid)
	return nil
}

func validateFile(executor *script.JavaScriptExecutor, filePath string) error {
	yamlData, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	file, err := dsl.ParseYAML(yamlData)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	for _, s := range file.Shortcuts {
		scripts := []struct{ field, code string }{
			{"code_on_prepare", s.CodeOnPrepare},
			{"code_on_success", s.CodeOnSuccess},
			{"code_on_failure", s.CodeOnFailure},
		}
		for _, sc := range scripts {
			if err := executor.ValidateScript(sc.code); err != nil {
				return fmt.Errorf("shortcut %q %s: %w", s.Name, sc.field, err)
			}
		}
	}

	Logger.Debug("file details",
		"shortcuts", len(file.Shortcuts),
		"variables", len(file.Variables),
	)

	return nil
}
