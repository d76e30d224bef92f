package store

// 注意：此包只包含实现，接口定义在 core 包。
//
// 交互数据源（core.InteractionSource）：
//   - SliceSource：内存切片，测试/示例
//   - CSVSource：CSV 文件，分块流式读取
//   - GormStore：MySQL interactions 表，分批扫描
//
// 推荐结果存储（core.RecommendationStore）：
//   - KVRecommendationStore：把任意 core.Store（Memory/Redis）适配为结果存储
//   - GormStore：MySQL recommendations 表，ON CONFLICT 整表 upsert
