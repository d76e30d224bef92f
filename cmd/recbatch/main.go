// recbatch 是离线推荐预计算引擎的命令行入口。
//
// 可用命令：
//
//	run    执行一次批处理：快照 → 训练 → 排序 → 发布
//	load   将 CSV 交互数据批量导入 MySQL
//	serve  启动只读 API，返回已预计算的推荐列表
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	logPath    string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "recbatch",
		Short:         "Offline recommendation precompute engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "job.yaml", "job config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "log file path (rotated); empty logs to stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd(), newLoadCmd(), newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger 构建 zap Logger；指定 --log 时输出到滚动文件，否则 stderr。
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if logPath != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		})
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level)
	return zap.New(core)
}
