package cli

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/yikesong/finsight/config"
	"github.com/yikesong/finsight/internal/fetcher"
)

// 代码或中文别名（茅台、黄金）
var symbolRe = regexp.MustCompile(`^[A-Z0-9.\-\p{Han}]+$`)

// runInteractiveMode 无子命令时进入的菜单模式
func runInteractiveMode(cfg *config.Config) error {
	fmt.Println("🚀 finsight - 金融研究命令行工具箱")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	logger := newLogger(cfg.Debug)
	defer logger.Sync()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// config.json 热更新：菜单循环期间改动即时生效
	if mgr, err := config.NewManager(
		config.WithConfigDir(cfg.ProjectDir),
		config.WithInitialConfig(cfg),
	); err != nil {
		logger.Warnf("config manager unavailable: %v", err)
	} else {
		*cfg = mgr.Get()
		if err := mgr.Watch(ctx, func(next config.Config) {
			*cfg = next
			fmt.Println("🔄 配置已重新加载")
		}); err != nil {
			logger.Warnf("config watch failed: %v", err)
		}
	}

	for {
		action, err := promptForAction()
		if err != nil {
			// survey returns an error on Ctrl-C
			fmt.Println("\n👋 再见！")
			return nil
		}

		switch action {
		case actionQuote:
			symbols, err := promptForSymbols()
			if err != nil || len(symbols) == 0 {
				continue
			}
			if err := runQuoteInteractive(ctx, cfg, symbols); err != nil {
				fmt.Printf("❌ %v\n", err)
			}
		case actionFutures:
			if err := runFuturesCommand(ctx, cfg, logger, defaultFuturesContracts, ""); err != nil {
				fmt.Printf("❌ %v\n", err)
			}
		case actionChinext:
			if err := runChinextCommand(ctx, cfg, logger, false, false, 120); err != nil {
				fmt.Printf("❌ %v\n", err)
			}
		case actionWechat:
			url, err := promptForURL()
			if err != nil || url == "" {
				continue
			}
			if err := runWechatCommand(ctx, cfg, logger, url, "output", false); err != nil {
				fmt.Printf("❌ %v\n", err)
			}
		case actionExit:
			fmt.Println("👋 再见！")
			return nil
		}
		fmt.Println()
	}
}

const (
	actionQuote   = "查询行情"
	actionFutures = "期货行情"
	actionChinext = "创业板技术分析"
	actionWechat  = "微信文章转Markdown"
	actionExit    = "退出"
)

func promptForAction() (string, error) {
	var action string
	prompt := &survey.Select{
		Message: "选择操作:",
		Options: []string{actionQuote, actionFutures, actionChinext, actionWechat, actionExit},
	}
	err := survey.AskOne(prompt, &action)
	return action, err
}

func promptForSymbols() ([]string, error) {
	var input string
	prompt := &survey.Input{
		Message: "输入股票代码（空格分隔，如 600519 00700.HK TSLA XAU）:",
		Help:    "A股6位代码、港股xxxx.HK、美股字母代码或商品别名",
	}

	err := survey.AskOne(prompt, &input, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return fmt.Errorf("代码不能为空")
		}
		for _, field := range strings.Fields(strings.ToUpper(str)) {
			if len(field) > 12 || !symbolRe.MatchString(field) {
				return fmt.Errorf("无效代码: %s", field)
			}
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return strings.Fields(strings.TrimSpace(input)), nil
}

func promptForURL() (string, error) {
	var url string
	prompt := &survey.Input{
		Message: "输入微信文章链接:",
		Help:    "形如 https://mp.weixin.qq.com/s/xxxx",
	}
	err := survey.AskOne(prompt, &url, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if !strings.Contains(str, "mp.weixin.qq.com") {
			return fmt.Errorf("仅支持 mp.weixin.qq.com 链接")
		}
		return nil
	}))
	return strings.TrimSpace(url), err
}

func runQuoteInteractive(ctx context.Context, cfg *config.Config, symbols []string) error {
	logger := newLogger(cfg.Debug)
	defer logger.Sync()

	svc := fetcher.NewService(cfg, logger)
	for _, q := range svc.FetchAll(ctx, symbols) {
		fmt.Println(renderQuote(q))
	}
	return nil
}
