package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"

	"github.com/yikesong/finsight/config"
	"github.com/yikesong/finsight/internal/analyzer"
	"github.com/yikesong/finsight/internal/chinext"
	"github.com/yikesong/finsight/internal/extractor"
	"github.com/yikesong/finsight/internal/fetcher"
	"github.com/yikesong/finsight/internal/llm"
	"github.com/yikesong/finsight/internal/report"
	"github.com/yikesong/finsight/internal/utils"
	"github.com/yikesong/finsight/internal/wechat"
)

const version = "1.0.0"

// hog futures contracts, the original toolbox's default watch list
var defaultFuturesContracts = []string{"LH0", "LH2501", "LH2503", "LH2505", "LH2507", "LH2509", "LH2511"}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "finsight",
		Short: "finsight - 金融研究命令行工具箱",
		Long: `finsight bundles the daily research workflow into one binary:
quote fetching for A-shares/HK/US/commodities, report text extraction,
keyword and sentiment scoring, Markdown report generation, ChiNext
technical analysis, WeChat article conversion and LLM fact-checking.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(cfg)
		},
	}

	rootCmd.AddCommand(newQuoteCmd(cfg))
	rootCmd.AddCommand(newFuturesCmd(cfg))
	rootCmd.AddCommand(newChinextCmd(cfg))
	rootCmd.AddCommand(newExtractCmd(cfg))
	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newSubsectorsCmd(cfg))
	rootCmd.AddCommand(newReportCmd(cfg))
	rootCmd.AddCommand(newWechatCmd(cfg))
	rootCmd.AddCommand(newVerifyCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

// newLogger 诊断日志走stderr，结果输出走stdout
func newLogger(debug bool) *zap.SugaredLogger {
	level := zap.WarnLevel
	if debug {
		level = zap.DebugLevel
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func newQuoteCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "查询股票/商品行情",
		Long: `Fetch quotes for A-shares, Hong Kong and US stocks or commodities.
Example: finsight quote 600519 00700.HK TSLA XAU`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			asJSON, _ := cmd.Flags().GetBool("json")
			svc := fetcher.NewService(cfg, logger)
			quotes := svc.FetchAll(cmd.Context(), args)

			if asJSON {
				return printJSON(quotes)
			}
			for _, q := range quotes {
				fmt.Println(renderQuote(q))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print quotes as indented JSON")
	return cmd
}

func newFuturesCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "futures [CONTRACT...]",
		Short: "查询期货合约行情（默认生猪合约）",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			contracts := args
			if len(contracts) == 0 {
				contracts = defaultFuturesContracts
			}
			output, _ := cmd.Flags().GetString("output")

			return runFuturesCommand(cmd.Context(), cfg, logger, contracts, output)
		},
	}
	cmd.Flags().String("output", "", "Save contract quotes to a JSON file")
	return cmd
}

func runFuturesCommand(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, contracts []string, output string) error {
	svc := fetcher.NewService(cfg, logger)

	quotes, err := svc.Sina().GetFutures(ctx, contracts)
	source := "新浪财经"
	if err != nil || len(quotes) == 0 {
		logger.Warnf("sina futures failed, falling back to eastmoney: %v", err)
		lower := make([]string, len(contracts))
		for i, c := range contracts {
			lower[i] = strings.ToLower(c)
		}
		quotes, err = svc.EastMoney().GetFutures(ctx, lower)
		source = "东方财富"
	}
	if err != nil || len(quotes) == 0 {
		return fmt.Errorf("所有接口均获取失败，请检查网络或稍后重试")
	}

	fmt.Println(renderFuturesTable(quotes, source))

	if output != "" {
		payload := map[string]any{
			"updated_at": time.Now().Format(time.RFC3339),
			"contracts":  quotes,
		}
		if err := utils.SaveJSON(output, payload); err != nil {
			return err
		}
		fmt.Printf("数据已保存到: %s\n", output)
	}
	return nil
}

func newChinextCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chinext",
		Short: "创业板指数K线抓取与技术分析",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			render, _ := cmd.Flags().GetBool("render")
			asJSON, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			return runChinextCommand(cmd.Context(), cfg, logger, render, asJSON, limit)
		},
	}
	cmd.Flags().Bool("render", false, "Fetch via a headless browser instead of plain HTTP")
	cmd.Flags().Bool("json", false, "Print the analysis brief as JSON")
	cmd.Flags().Int("limit", 120, "Number of trailing daily bars")
	return cmd
}

func runChinextCommand(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, render, asJSON bool, limit int) error {
	query := fetcher.KlineQuery{SecID: "0.399006", Limit: limit}

	var bars []fetcher.KlineBar
	var err error
	if render {
		bars, err = chinext.FetchKlinesViaBrowser(ctx, query, 2*time.Minute)
	} else {
		svc := fetcher.NewService(cfg, logger)
		bars, err = svc.EastMoney().GetKlines(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("fetch chinext klines: %w", err)
	}
	logger.Infof("fetched %d kline bars", len(bars))

	dataPath := filepath.Join(cfg.DataDir, "chinext_data.csv")
	if err := chinext.WriteBarsCSV(dataPath, bars); err != nil {
		return err
	}

	ind := chinext.Compute(bars)
	analysisPath := filepath.Join(cfg.DataDir, "chinext_analysis.csv")
	if err := chinext.WriteAnalysisCSV(analysisPath, bars, ind); err != nil {
		return err
	}

	analysis, err := chinext.Analyze(bars, ind)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(analysis.Brief())
	}
	fmt.Println(analysis.Report())
	fmt.Printf("数据已保存到 %s\n", dataPath)
	fmt.Printf("分析数据已保存到 %s\n", analysisPath)
	return nil
}

func newExtractCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract DIR",
		Short: "提取研报目录下的DOCX/PDF文本",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = filepath.Join(cfg.ResultsDir, "extracted_reports.json")
			}

			ext := extractor.New(logger)
			docs, err := ext.ExtractDir(args[0])
			if err != nil {
				return err
			}

			if err := utils.SaveJSON(output, docs); err != nil {
				return err
			}
			fmt.Printf("✓ 提取完成: %d 份报告 -> %s\n", len(docs), output)
			return nil
		},
	}
	cmd.Flags().String("output", "", "Output JSON path (default: <results>/extracted_reports.json)")
	return cmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "板块与个股关键词/情绪打分",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			input, _ := cmd.Flags().GetString("input")
			docs, err := loadDocuments(cfg, input)
			if err != nil {
				return err
			}

			result := analyzer.New(logger).Analyze(docs)

			output := filepath.Join(cfg.ResultsDir, "analysis_result.json")
			if err := utils.SaveJSON(output, result); err != nil {
				return err
			}

			fmt.Println(renderAnalysisSummary(result))
			fmt.Printf("✓ 分析结果已保存: %s\n", output)
			return nil
		},
	}
	cmd.Flags().String("input", "", "Extracted reports JSON (default: <results>/extracted_reports.json)")
	return cmd
}

func newSubsectorsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subsectors",
		Short: "科技板块细分领域深度分析",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			input, _ := cmd.Flags().GetString("input")
			docs, err := loadDocuments(cfg, input)
			if err != nil {
				return err
			}

			result := analyzer.New(logger).AnalyzeTechSubsectors(docs)

			jsonPath := filepath.Join(cfg.ResultsDir, "tech_subsector_analysis.json")
			if err := utils.SaveJSON(jsonPath, result); err != nil {
				return err
			}

			markdown := report.Subsector(result)
			if err := utils.WriteMarkdown(cfg.ResultsDir, "科技板块细分分析.md", markdown); err != nil {
				return err
			}

			fmt.Printf("✓ 细分分析已保存: %s\n", jsonPath)
			fmt.Printf("✓ 报告已生成: %s\n", filepath.Join(cfg.ResultsDir, "科技板块细分分析.md"))
			return nil
		},
	}
	cmd.Flags().String("input", "", "Extracted reports JSON (default: <results>/extracted_reports.json)")
	return cmd
}

func newReportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "生成投资分析总结报告（Markdown）",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			input, _ := cmd.Flags().GetString("input")
			docs, err := loadDocuments(cfg, input)
			if err != nil {
				return err
			}

			analysis, err := loadAnalysis(cfg, logger, docs)
			if err != nil {
				return err
			}

			markdown := report.Final(analysis, docs)
			if err := utils.WriteMarkdown(cfg.ResultsDir, "投资分析总结报告.md", markdown); err != nil {
				return err
			}
			// 纯文本版本内容相同
			if err := utils.WriteMarkdown(cfg.ResultsDir, "投资分析总结报告.txt", markdown); err != nil {
				return err
			}

			fmt.Printf("✓ 报告已生成: %s\n", filepath.Join(cfg.ResultsDir, "投资分析总结报告.md"))
			fmt.Printf("✓ 报告长度: %d 字符\n", len([]rune(markdown)))
			return nil
		},
	}
	cmd.Flags().String("input", "", "Extracted reports JSON (default: <results>/extracted_reports.json)")
	return cmd
}

func newWechatCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wechat URL",
		Short: "微信公众号文章转Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			outDir, _ := cmd.Flags().GetString("output")
			skipImages, _ := cmd.Flags().GetBool("no-images")

			return runWechatCommand(cmd.Context(), cfg, logger, args[0], outDir, skipImages)
		},
	}
	cmd.Flags().String("output", "output", "Output directory for article.md and images/")
	cmd.Flags().Bool("no-images", false, "Keep remote image URLs instead of downloading")
	return cmd
}

func runWechatCommand(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, url, outDir string, skipImages bool) error {
	client := wechat.NewClient(cfg, logger)

	article, err := client.FetchArticle(ctx, url)
	if err != nil {
		return err
	}
	fmt.Printf("✓ 文章: %s\n", article.Title)

	resolved := map[int]string{}
	if !skipImages && len(article.Images) > 0 {
		fmt.Printf("下载 %d 张图片...\n", len(article.Images))
		resolved = client.DownloadImages(ctx, article, filepath.Join(outDir, "images"))
	}

	markdown := article.Render(resolved)
	if err := utils.WriteMarkdown(outDir, "article.md", markdown); err != nil {
		return err
	}
	fmt.Printf("✓ 已保存: %s\n", filepath.Join(outDir, "article.md"))
	return nil
}

func newVerifyCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify CONCLUSION",
		Short: "用大模型交叉验证研究结论",
		Long: `Cross-validate a research conclusion with an LLM fact-checker.
Example: finsight verify "创业板指数处于多头排列" --context "基于120日K线"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Debug)
			defer logger.Sync()

			extra, _ := cmd.Flags().GetString("context")
			modelAlias, _ := cmd.Flags().GetString("model")
			asJSON, _ := cmd.Flags().GetBool("json")

			conclusion := strings.Join(args, " ")

			chatModel, err := llm.NewChatModel(cmd.Context(), cfg, llm.ModelName(modelAlias))
			if err != nil {
				return err
			}
			verifier := llm.NewVerifier(chatModel, logger)

			if asJSON {
				verdict, err := verifier.VerifyJSON(cmd.Context(), conclusion, extra)
				if err != nil {
					return err
				}
				fmt.Println(string(pretty.Pretty([]byte(verdict))))
				return nil
			}

			analysis, err := verifier.Verify(cmd.Context(), conclusion, extra)
			if err != nil {
				return err
			}
			fmt.Println(analysis)
			return nil
		},
	}
	cmd.Flags().String("context", "", "Additional context for the fact-checker")
	cmd.Flags().String("model", "chat", "Model alias: chat, coder, r1, or a full model ID")
	cmd.Flags().Bool("json", false, "Ask for a structured JSON verdict")
	return cmd
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Persist a setting to config.json",
		Long:  "Supported keys: llm_provider, deepseek_model, results_dir, data_dir, user_agent, cache_enabled, debug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cfg, args[0], args[1])
		},
	})

	return configCmd
}

// setConfigValue updates one field and writes it through the config manager so
// a running interactive session picks the change up.
func setConfigValue(cfg *config.Config, key, value string) error {
	mgr, err := config.NewManager(
		config.WithConfigDir(cfg.ProjectDir),
		config.WithInitialConfig(cfg),
	)
	if err != nil {
		return fmt.Errorf("open config manager: %w", err)
	}

	next := mgr.Get()
	switch key {
	case "llm_provider":
		next.LLMProvider = value
	case "deepseek_model":
		next.DeepSeekModel = value
	case "results_dir":
		next.ResultsDir = value
	case "data_dir":
		next.DataDir = value
	case "user_agent":
		next.UserAgent = value
	case "cache_enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache_enabled wants true/false, got %q", value)
		}
		next.CacheEnabled = enabled
	case "debug":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("debug wants true/false, got %q", value)
		}
		next.Debug = enabled
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := mgr.Update(next); err != nil {
		return err
	}
	*cfg = mgr.Get()
	fmt.Printf("✅ %s 已写入 %s\n", key, mgr.Path())
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("finsight v%s\n", version)
			fmt.Println("金融研究命令行工具箱")
		},
	}
}

func showConfig(cfg *config.Config) {
	fmt.Println("📋 Current finsight Configuration:")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Project Directory:    %s\n", cfg.ProjectDir)
	fmt.Printf("Results Directory:    %s\n", cfg.ResultsDir)
	fmt.Printf("Data Directory:       %s\n", cfg.DataDir)
	fmt.Printf("Cache Directory:      %s\n", cfg.DataCacheDir)
	fmt.Println()
	fmt.Printf("HTTP Timeout:         %s\n", cfg.HTTPTimeout)
	fmt.Printf("User Agent:           %s\n", cfg.UserAgent)
	fmt.Printf("Cache Enabled:        %t\n", cfg.CacheEnabled)
	fmt.Printf("Debug Mode:           %t\n", cfg.Debug)
	fmt.Println()
	fmt.Println("🔌 LLM Configuration:")
	fmt.Println("─────────────────────")
	fmt.Printf("Provider:             %s\n", cfg.LLMProvider)
	fmt.Printf("DeepSeek Model:       %s\n", cfg.DeepSeekModel)
	if cfg.DeepSeekAPIKey != "" {
		fmt.Println("DeepSeek API:         ✅ Configured")
	} else {
		fmt.Println("DeepSeek API:         ❌ Not configured")
	}
	if cfg.OpenAIAPIKey != "" {
		fmt.Println("OpenAI API:           ✅ Configured")
	} else {
		fmt.Println("OpenAI API:           ❌ Not configured")
	}
	if cfg.OpenAIBaseURL != "" {
		fmt.Printf("Base URL:             %s\n", cfg.OpenAIBaseURL)
	}
}

func validateConfig(cfg *config.Config) error {
	fmt.Println("🔍 Validating finsight Configuration...")
	fmt.Println("═══════════════════════════════════════")

	fmt.Print("📁 Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Println("❌")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Println("✅")

	fmt.Print("⚙️  Checking configuration values... ")
	if err := cfg.Validate(); err != nil {
		fmt.Println("❌")
		return err
	}
	fmt.Println("✅")

	fmt.Print("🔑 Checking API keys... ")
	var warnings []string
	if cfg.DeepSeekAPIKey == "" && cfg.OpenAIAPIKey == "" {
		warnings = append(warnings, "no LLM API key configured; the verify command will not work")
	}
	if len(warnings) > 0 {
		fmt.Println("⚠️")
		for _, w := range warnings {
			fmt.Printf("  ⚠️  %s\n", w)
		}
	} else {
		fmt.Println("✅")
	}

	fmt.Println()
	if len(warnings) == 0 {
		fmt.Println("✅ Configuration validation completed successfully!")
	} else {
		fmt.Printf("⚠️  Configuration validation completed with %d warnings.\n", len(warnings))
	}
	fmt.Println()
	fmt.Println("💡 Tips:")
	fmt.Println("  • Set DEEPSEEK_API_KEY for the verify command")
	fmt.Println("  • Use 'finsight quote 600519' to fetch your first quote")
	return nil
}

// loadDocuments reads previously extracted reports from disk.
func loadDocuments(cfg *config.Config, input string) ([]extractor.Document, error) {
	if input == "" {
		input = filepath.Join(cfg.ResultsDir, "extracted_reports.json")
	}
	raw, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read extracted reports (run 'finsight extract' first): %w", err)
	}
	var docs []extractor.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", input, err)
	}
	return docs, nil
}

// loadAnalysis reuses analysis_result.json when present, otherwise re-analyzes.
func loadAnalysis(cfg *config.Config, logger *zap.SugaredLogger, docs []extractor.Document) (*analyzer.Result, error) {
	path := filepath.Join(cfg.ResultsDir, "analysis_result.json")
	raw, err := os.ReadFile(path)
	if err == nil {
		var result analyzer.Result
		if err := json.Unmarshal(raw, &result); err == nil {
			return &result, nil
		}
		logger.Warnf("stale analysis_result.json, re-analyzing")
	}
	return analyzer.New(logger).Analyze(docs), nil
}

func printJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(pretty.Pretty(data)))
	return nil
}
