package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tradewatch/internal/app"
	"tradewatch/internal/config"
	"tradewatch/internal/logger"
	"tradewatch/internal/report"
	"tradewatch/internal/schema"
	"tradewatch/internal/types"
)

const envConfigPath = "TRADEWATCH_CONFIG"

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "tradewatch",
		Short:         "Scheduled market-data aggregation and LLM trade decisions",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(opts.envFile); err != nil {
				return fmt.Errorf("load %s: %w", opts.envFile, err)
			}
			return nil
		},
	}

	defPath := os.Getenv(envConfigPath)
	if defPath == "" {
		defPath = "configs/config.yaml"
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defPath, "config file path (env "+envConfigPath+")")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with credentials")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override app.log_level")

	root.AddCommand(newRunCmd(opts), newServeCmd(opts), newSchemaCmd(opts))
	return root
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pass over all instruments and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			// 报告写 stdout，日志改走 stderr，避免混入 json/yaml 输出。
			cfg, cleanup, err := bootstrap(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("初始化应用失败: %w", err)
			}
			defer a.Close()

			rep, err := a.RunOnce(ctx)
			if err != nil {
				return fmt.Errorf("运行失败: %w", err)
			}
			return report.Write(cmd.OutOrStdout(), rep, f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatTable), "report format: table, json or yaml")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run on the configured schedule and expose the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := bootstrap(opts, os.Stdout)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("初始化应用失败: %w", err)
			}
			defer a.Close()
			return a.Serve(ctx)
		},
	}
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the effective output schema per category as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return fmt.Errorf("读取配置失败: %w", err)
			}
			reg, err := schema.NewRegistry(cfg.Schema.Path, false)
			if err != nil {
				return err
			}
			return writeSchemas(cmd.OutOrStdout(), reg.Snapshot(), category)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only print one category (crypto or equity)")
	return cmd
}

// bootstrap 读取配置并按配置初始化日志，返回的 cleanup 关闭日志文件。
func bootstrap(opts *rootOptions, base io.Writer) (*config.Config, func(), error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置失败: %w", err)
	}
	if opts.logLevel != "" {
		cfg.App.LogLevel = opts.logLevel
	}
	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	logFile, err := setupLogOutput(base, cfg.App.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志文件失败: %w", err)
	}
	if logFile != nil {
		closers = append(closers, logFile)
	}
	logger.SetLLMWriter(nil)
	if cfg.App.LLMDump {
		f, err := setupLLMLogOutput(cfg.App.LLMLog)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("初始化 LLM 日志失败: %w", err)
		}
		if f != nil {
			closers = append(closers, f)
		}
	}
	logger.SetFormat(cfg.App.LogFmt)
	logger.SetLevel(cfg.App.LogLevel)
	logger.EnableLLMPayloadDump(cfg.App.LLMDump)
	logger.Infof("✓ 配置加载成功（环境=%s，标的=%d）", cfg.App.Env, len(cfg.Instruments))
	return cfg, cleanup, nil
}

type schemaDoc struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Version     int            `json:"version"`
	Actions     []string       `json:"actions"`
	Parameters  map[string]any `json:"parameters"`
}

func writeSchemas(w io.Writer, snap schema.Snapshot, only string) error {
	var filter types.Category
	if strings.TrimSpace(only) != "" {
		c, err := types.ParseCategory(only)
		if err != nil {
			return err
		}
		filter = c
	}
	cats := make([]string, 0, len(snap.Schemas))
	for c := range snap.Schemas {
		if filter != "" && c != filter {
			continue
		}
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	out := make(map[string]schemaDoc, len(cats))
	for _, c := range cats {
		s := snap.Schemas[types.Category(c)]
		out[c] = schemaDoc{
			Name:        s.Name,
			Description: s.Description,
			Version:     s.Version,
			Actions:     s.Actions(),
			Parameters:  s.JSONSchema(),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
