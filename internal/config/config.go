package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	LazyStrategy  = "lazy"
	EagerStrategy = "eager"
)

const (
	SqliteBackend    = "sqlite"
	FirestoreBackend = "firestore"
	FsBackend        = "fs"
	S3Backend        = "s3"
)

type Configuration struct {
	// Name of the portal, shown in the shell and in the startup banner.
	Name string
	Port uint16
	// Url is the portal's public url. Its origin is the only origin child applications accept messages from,
	// and the only one the shell posts tokens to.
	Url   *url.URL
	Debug bool
	// DbUrl is the path to the sqlite database file holding accounts, the task queue and, with the sqlite
	// document backend, every collection.
	DbUrl            string
	MigrationsFolder string
	// StaticDir is the directory holding the shell and child application scripts and the stylesheet.
	StaticDir string
	// AdminDomain is the domain suffix of logins that are granted the administrator flag.
	AdminDomain string
	// SessionKey is the 32 byte key used to encrypt the cookie sessions.
	SessionKey  string
	TokenSecret string
	TokenTTL    time.Duration
	// TokenRefreshMargin is how long before expiry a token is replaced and pushed again into every frame.
	TokenRefreshMargin time.Duration
	// RecentLoginWindow bounds how old a login may be for a password change to be accepted.
	RecentLoginWindow time.Duration
	// SignedOutGrace is how long the shell waits after a sign out notification before sending the browser
	// back to the login page; a new sign in inside the window cancels the redirect.
	SignedOutGrace time.Duration
	// FrameStrategy is either "lazy" or "eager".
	FrameStrategy  string
	PreloadTimeout time.Duration
	LoadTimeout    time.Duration
	AckTimeout     time.Duration
	// Routes is the route table: logical name to child application path. "home" maps to nothing.
	Routes map[string]string
	// DocumentBackend selects where collections live, "sqlite" or "firestore".
	DocumentBackend  string
	FirestoreProject string
	// BlobBackend selects where uploaded schedule files live, "fs" or "s3".
	BlobBackend      string
	FsRoot           string
	S3Region         string
	S3Bucket         string
	S3BaseEndpoint   string
	S3AccessKey      string
	S3SecretKey      string
	CacheTTL         time.Duration
	QueueWorkers     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "Portal Unificado")
	v.SetDefault("port", 8080)
	v.SetDefault("url", "http://localhost:8080")
	v.SetDefault("debug", false)
	v.SetDefault("db_url", "portal.db")
	v.SetDefault("migrations_folder", "migrations")
	v.SetDefault("static_dir", "static")
	v.SetDefault("admin_domain", "movebuss.local")
	v.SetDefault("token_ttl", time.Hour)
	v.SetDefault("token_refresh_margin", 5*time.Minute)
	v.SetDefault("recent_login_window", 5*time.Minute)
	v.SetDefault("signed_out_grace", 2*time.Second)
	v.SetDefault("frame_strategy", LazyStrategy)
	v.SetDefault("preload_timeout", 8*time.Second)
	v.SetDefault("load_timeout", 15*time.Second)
	v.SetDefault("ack_timeout", 3*time.Second)
	v.SetDefault("routes", map[string]string{
		"home":       "",
		"diferencas": "/apps/diferencas/",
		"escala":     "/apps/escala/",
		"escalas":    "/apps/escalas/",
	})
	v.SetDefault("document_backend", SqliteBackend)
	v.SetDefault("blob_backend", FsBackend)
	v.SetDefault("fs_root", "files")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("queue_workers", 2)
}

// ReadConfig loads portal.yaml from the working directory, /etc/portal or the file named by PORTAL_CONFIG.
// Every key can be overridden by an environment variable prefixed with PORTAL_, such as PORTAL_DB_URL.
func ReadConfig() (Configuration, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("portal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("portal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/portal")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Configuration{}, fmt.Errorf("reading configuration: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (cfg Configuration, err error) {
	u, err := url.Parse(v.GetString("url"))
	if err != nil {
		return cfg, fmt.Errorf("invalid url %q: %w", v.GetString("url"), err)
	}

	cfg = Configuration{
		Name:               v.GetString("name"),
		Port:               v.GetUint16("port"),
		Url:                u,
		Debug:              v.GetBool("debug"),
		DbUrl:              v.GetString("db_url"),
		MigrationsFolder:   v.GetString("migrations_folder"),
		StaticDir:          v.GetString("static_dir"),
		AdminDomain:        v.GetString("admin_domain"),
		SessionKey:         v.GetString("session_key"),
		TokenSecret:        v.GetString("token_secret"),
		TokenTTL:           v.GetDuration("token_ttl"),
		TokenRefreshMargin: v.GetDuration("token_refresh_margin"),
		RecentLoginWindow:  v.GetDuration("recent_login_window"),
		SignedOutGrace:     v.GetDuration("signed_out_grace"),
		FrameStrategy:      v.GetString("frame_strategy"),
		PreloadTimeout:     v.GetDuration("preload_timeout"),
		LoadTimeout:        v.GetDuration("load_timeout"),
		AckTimeout:         v.GetDuration("ack_timeout"),
		Routes:             v.GetStringMapString("routes"),
		DocumentBackend:    v.GetString("document_backend"),
		FirestoreProject:   v.GetString("firestore_project"),
		BlobBackend:        v.GetString("blob_backend"),
		FsRoot:             v.GetString("fs_root"),
		S3Region:           v.GetString("s3_region"),
		S3Bucket:           v.GetString("s3_bucket"),
		S3BaseEndpoint:     v.GetString("s3_base_endpoint"),
		S3AccessKey:        v.GetString("s3_access_key"),
		S3SecretKey:        v.GetString("s3_secret_key"),
		CacheTTL:           v.GetDuration("cache_ttl"),
		QueueWorkers:       v.GetInt("queue_workers"),
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the portal cannot start with.
func (c *Configuration) Validate() error {
	var problems []string
	if len(c.SessionKey) != 32 {
		problems = append(problems, "session_key must be 32 bytes long")
	}
	if len(c.TokenSecret) < 32 {
		problems = append(problems, "token_secret must be at least 32 bytes long")
	}
	if c.TokenRefreshMargin >= c.TokenTTL {
		problems = append(problems, "token_refresh_margin must be shorter than token_ttl")
	}
	if c.CacheTTL <= 0 {
		problems = append(problems, "cache_ttl must be positive")
	}
	switch c.FrameStrategy {
	case LazyStrategy, EagerStrategy:
	default:
		problems = append(problems, "frame_strategy must be lazy or eager")
	}
	switch c.DocumentBackend {
	case SqliteBackend:
	case FirestoreBackend:
		if c.FirestoreProject == "" {
			problems = append(problems, "firestore_project is required by the firestore backend")
		}
	default:
		problems = append(problems, "document_backend must be sqlite or firestore")
	}
	switch c.BlobBackend {
	case FsBackend:
	case S3Backend:
		if c.S3Bucket == "" {
			problems = append(problems, "s3_bucket is required by the s3 backend")
		}
	default:
		problems = append(problems, "blob_backend must be fs or s3")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Origin returns scheme://host of the portal url.
func (c *Configuration) Origin() string {
	return c.Url.Scheme + "://" + c.Url.Host
}
