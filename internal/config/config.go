package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	sdk "github.com/matrixorigin/moi-go-sdk"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	AdminCenter = "ADMIN"
	AdminArea   = "SERVICIOS"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	MOI       MOIConfig       `yaml:"moi"`
	Database  DatabaseConfig  `yaml:"database"`
	Directory DirectoryConfig `yaml:"directory"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	Secret    string `yaml:"secret"`
	TokenDays int    `yaml:"token_days"`
}

// MOIConfig enables mirroring reports into a MatrixOne catalog. Mirroring is
// off while APIKey is empty.
type MOIConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	CatalogID         int64  `yaml:"catalog_id"`
	DatabaseID        int64  `yaml:"database_id"`
	ReportsTableID    int64  `yaml:"reports_table_id"`
	IdentitiesTableID int64  `yaml:"identities_table_id"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql, postgres, sqlite
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type CenterSeed struct {
	Email  string `yaml:"email"`
	Center string `yaml:"center"`
	Area   string `yaml:"area"`
}

// DirectoryConfig is the seeded allow-list. HiddenCenters never show up on
// the admin dashboard even though their identities may log in.
type DirectoryConfig struct {
	Centers       []CenterSeed `yaml:"centers"`
	Admins        []string     `yaml:"admins"`
	HiddenCenters []string     `yaml:"hidden_centers"`
}

func defaultCenters() []CenterSeed {
	return []CenterSeed{
		{"angostura@multix", "ANGOSTURA", "AYSEN"},
		{"cuchi@multix", "CUCHI", "AYSEN"},
		{"guapo@multix", "GUAPO", "AYSEN"},
		{"marcacci@multix", "MARCACCI", "AYSEN"},
		{"mayhew@multix", "MAYHEW", "AYSEN"},
		{"pulluche@multix", "PULLUCHE", "AYSEN"},
		{"quemada@multix", "QUEMADA", "AYSEN"},
		{"soledad@multix", "SOLEDAD", "AYSEN"},
		{"wickham@multix", "WICKHAM", "AYSEN"},
		{"williams@multix", "WILLIAMS", "AYSEN"},
		{"areaysen@multix", "AREA AYSEN", "AYSEN"},
		{"chalacayec@multix", "CHALACAYEC", "AYSEN"},
		{"ninualac@multix", "NINUALAC", "AYSEN"},
	}
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 5000, Secret: "dev-secret", TokenDays: 7},
		MOI:      MOIConfig{BaseURL: "https://freetier-01.cn-hangzhou.cluster.cn-dev.matrixone.tech", CatalogID: 1},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "data.db", Port: 3306, Name: "daily_meals"},
		Directory: DirectoryConfig{
			Centers:       defaultCenters(),
			Admins:        []string{"rcarcamo@multix"},
			HiddenCenters: []string{AdminCenter, "AREA AYSEN"},
		},
	}
}

func Load(configFile string) *Config {
	_ = godotenv.Load() // .env is optional

	c := Default()
	paths := []string{"etc/config-dev.yaml", "/etc/daily-meals/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.MOI.BaseURL, "MOI_BASE_URL")
	envOverride(&c.MOI.APIKey, "MOI_API_KEY")
	envOverride(&c.Database.Driver, "DB_DRIVER")
	envOverride(&c.Database.DSN, "DB_DSN")
	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASS")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Server.Secret, "APP_SECRET")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "DB_PORT")
	envOverrideList(&c.Directory.Admins, "APP_ADMINS")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// IsAdmin reports whether email is one of the configured administrators.
func (c *Config) IsAdmin(email string) bool {
	email = NormalizeEmail(email)
	for _, a := range c.Directory.Admins {
		if NormalizeEmail(a) == email {
			return true
		}
	}
	return false
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	switch c.Database.Driver {
	case "mysql":
		cfg := gomysql.NewConfig()
		cfg.User = c.Database.User
		cfg.Passwd = c.Database.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
		cfg.DBName = c.Database.Name
		cfg.ParseTime = true
		cfg.ClientFoundRows = true

		connector, err := gomysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("create connector: %w", err)
		}
		sqlDB := sql.OpenDB(connector)
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("ping db: %w", err)
		}
		return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gcfg)
	case "postgres":
		dsn := c.Database.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name)
		}
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "sqlite", "":
		dsn := c.Database.DSN
		if dsn == "" {
			dsn = "data.db"
		}
		return gorm.Open(sqlite.Open(dsn), gcfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
}

func (c *Config) NewRawClient() (*sdk.RawClient, error) {
	return sdk.NewRawClient(c.MOI.BaseURL, c.MOI.APIKey)
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envOverrideList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
