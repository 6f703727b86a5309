package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"go-gin-gorm-auth/internal/core/auth"
)

// PlaceholderJWTSecret configs/config.local.yaml 里的示例密钥，只允许在 local 环境使用
const PlaceholderJWTSecret = "change-me-change-me-change-me-change-me"

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	// 单请求超时（秒）
	RequestTimeoutSec int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin HTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	LeewaySec         int
}

type Auth struct {
	BcryptCost  int
	HashWorkers int     // 0 = GOMAXPROCS
	LoginRPS    float64 // 每 IP 登录限速
	LoginBurst  int
}

type Redis struct {
	Addr             string `mapstructure:"addr"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	IdentityCacheSec int    `mapstructure:"identitycachesec"`
}

type DB struct {
	Driver             string // postgres | mysql | memory
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Bootstrap 存储为空时由 cmd/admin 创建的初始管理员
type Bootstrap struct {
	AdminName     string
	AdminUsername string
	AdminPassword string
}

func (b Bootstrap) Enabled() bool { return b.AdminUsername != "" && b.AdminPassword != "" }

type Config struct {
	App       App
	Log       Log
	JWT       JWT
	Auth      Auth
	DB        DB
	Redis     Redis `mapstructure:"redis"`
	Bootstrap Bootstrap
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "go-gin-gorm-auth")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 10)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("app.admin.readtimeoutsec", 5)
	v.SetDefault("app.admin.writetimeoutsec", 10)
	v.SetDefault("app.admin.idletimeoutsec", 60)
	v.SetDefault("app.admin.requesttimeoutsec", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxsizemb", 100)
	v.SetDefault("log.rotate.maxbackups", 7)
	v.SetDefault("log.rotate.maxagedays", 30)

	v.SetDefault("jwt.issuer", "go-gin-gorm-auth")
	v.SetDefault("jwt.accesstokenttlmin", 60)

	v.SetDefault("auth.bcryptcost", bcrypt.DefaultCost)
	v.SetDefault("auth.loginrps", 1)
	v.SetDefault("auth.loginburst", 5)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxopenconns", 50)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.identitycachesec", 60)
	v.SetDefault("bootstrap.adminname", "admin")
}

// Load 读取 YAML，APP_ 前缀的环境变量覆盖同名配置（APP_JWT_SECRET → jwt.secret）
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	// AutomaticEnv 只对已知 key 生效；密钥类配置可能不出现在 YAML 里
	for _, k := range []string{"jwt.secret", "db.dsn", "db.password", "redis.password", "bootstrap.adminusername", "bootstrap.adminpassword"} {
		_ = v.BindEnv(k)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate 启动前检查；任何一项不满足都不应启动服务
func (c *Config) Validate() error {
	var errs []error
	if len(c.JWT.Secret) < auth.MinSecretLen {
		errs = append(errs, fmt.Errorf("jwt.secret must be at least %d bytes", auth.MinSecretLen))
	}
	if c.JWT.Secret == PlaceholderJWTSecret && c.App.Env != "local" {
		errs = append(errs, fmt.Errorf("jwt.secret is the sample value; set APP_JWT_SECRET for env %q", c.App.Env))
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		errs = append(errs, errors.New("jwt.accessTokenTTLMin must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcryptCost must be in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.DB.Driver {
	case "postgres", "mysql":
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("db.dsn is required"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported db.driver %q", c.DB.Driver))
	}
	if c.Bootstrap.AdminUsername != "" && c.Bootstrap.AdminPassword == "" {
		errs = append(errs, errors.New("bootstrap.adminPassword is required when adminUsername is set"))
	}
	return errors.Join(errs...)
}
