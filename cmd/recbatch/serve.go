package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/recbatch/core"
	"github.com/rushteam/recbatch/pipeline"
)

// serve 命令启动只读 API：返回批处理预计算好的推荐列表，
// 不做任何在线打分。列表不存在返回 404，冷用户兜底由上游自行决定
// （如随机目录采样），不属于本服务。
func newServeCmd() *cobra.Command {
	var addr string
	var defaultLimit int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve precomputed recommendation lists over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			recStore, err := pipeline.DefaultFactory().BuildStore(cfg.Job.Store)
			if err != nil {
				return err
			}
			defer recStore.Close()

			maxLimit := cfg.Job.TopN
			if maxLimit <= 0 {
				maxLimit = 20
			}
			if defaultLimit > maxLimit {
				defaultLimit = maxLimit
			}

			gin.SetMode(gin.ReleaseMode)
			router := gin.New()
			router.Use(gin.Recovery())

			router.GET("/health", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{
					"status":    "healthy",
					"store":     recStore.Name(),
					"timestamp": time.Now().Unix(),
				})
			})

			router.GET("/recommend/:user_id", func(c *gin.Context) {
				start := time.Now()
				userID := c.Param("user_id")

				limit := defaultLimit
				if raw := c.Query("limit"); raw != "" {
					var perr error
					limit, perr = strconv.Atoi(raw)
					if perr != nil || limit < 1 || limit > maxLimit {
						c.JSON(http.StatusBadRequest, gin.H{
							"error": "limit must be between 1 and " + strconv.Itoa(maxLimit),
						})
						return
					}
				}

				list, err := recStore.Get(c.Request.Context(), userID)
				if core.IsStoreNotFound(err) {
					c.JSON(http.StatusNotFound, gin.H{
						"error": "no recommendations found for user: " + userID,
					})
					return
				}
				if err != nil {
					logger.Error("store get failed", zap.String("user_id", userID), zap.Error(err))
					c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
					return
				}

				c.JSON(http.StatusOK, gin.H{
					"user_id":          userID,
					"recommendations":  list.Truncate(limit),
					"computed_at":      list.ComputedAt,
					"response_time_ms": float64(time.Since(start).Microseconds()) / 1000.0,
				})
			})

			logger.Info("serving", zap.String("addr", addr))
			return router.Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "listen address")
	cmd.Flags().IntVar(&defaultLimit, "default-limit", 10, "default recommendation limit")
	return cmd
}
