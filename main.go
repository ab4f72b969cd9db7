package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danloi2/transparente/internal/config"
	"github.com/danloi2/transparente/internal/observability"
)

func main() {

	inputDir := flag.String("input", "", "原始图片所在目录")
	outputDir := flag.String("output", "", "结果输出目录（默认取配置文件）")
	configPath := flag.String("config", "", "TOML 配置文件路径")
	parallel := flag.Int("parallel", 0, "同时处理的图片数，0 表示使用配置")
	tracer := flag.String("tracer", "", "描摹器：potrace 或 gotrace")

	help := flag.Bool("help", false, "显示帮助信息")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *inputDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := observability.InitLogger("transparente")

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("load config")
		}
		cfg = loaded
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *parallel > 0 {
		cfg.Runtime.ParallelImages = *parallel
	}
	if *tracer != "" {
		cfg.Tracer.Kind = *tracer
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// 收到中断信号后不再开始新的图片
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if failed := processDir(ctx, logger, cfg, *inputDir); failed > 0 {
		stop()
		os.Exit(1)
	}
}
