package config

import (
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Port     int
	MongoURI string
	MongoDB  string
	JWTKey   string
	Debug    bool

	// 后台扫描配置
	SweepInterval      time.Duration // 扫描间隔
	ReminderLookahead  time.Duration // 即将到期提醒的提前量
	RecoveryWindowDays int           // 软删除恢复窗口（天）

	// 邮件配置
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
}

// LoadConfig 从环境变量加载配置
func LoadConfig() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	recoveryDays, _ := strconv.Atoi(getEnv("RECOVERY_WINDOW_DAYS", "60"))

	return &Config{
		Port:     port,
		MongoURI: getEnv("MONGO_URI", "mongodb://127.0.0.1:27017/leads"),
		MongoDB:  getEnv("MONGO_DB", "leads"),
		JWTKey:   getEnv("JWT_KEY", "your-secret-key"), // 实际环境应替换为安全密钥
		Debug:    getEnv("GIN_MODE", "debug") == "debug",

		SweepInterval:      getDuration("SWEEP_INTERVAL", 15*time.Minute),
		ReminderLookahead:  getDuration("REMINDER_LOOKAHEAD", 24*time.Hour),
		RecoveryWindowDays: recoveryDays,

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: smtpPort,
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
	}
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDuration 获取时间类型的环境变量，解析失败时返回默认值
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
