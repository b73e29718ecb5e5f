// Package config reads the server configuration from flags, with
// environment variables (optionally loaded from a .env file) as defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erazemk/lumiere/internal/funnel"
	"github.com/erazemk/lumiere/internal/live"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/upload"
)

// Cloudinary holds the media CDN credentials.
type Cloudinary struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	Folder       string
}

// Signed reports whether a signed upload is possible.
func (c Cloudinary) Signed() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// Unsigned reports whether an unsigned preset upload is possible.
func (c Cloudinary) Unsigned() bool {
	return c.CloudName != "" && c.UploadPreset != ""
}

// Config is the full server configuration.
type Config struct {
	DBPath   string
	Addr     string
	LogPath  string
	Location *time.Location
	Funnel   *funnel.Funnel
	AlertFor time.Duration

	PINs        map[model.Role]string
	Cloudinary  Cloudinary
	S3          upload.S3Config
	RedisURL    string
	RedisChan   string
	CORSOrigins []string
}

const usage = `Usage: lumiere [flags]

Flags:
  -d, -db <path>            SQLite database path (default: lumiere.sqlite3)
  -a, -addr <host:port>     listen address (default: :8080)
  -l, -log <path>           log file path (default: no file, stdout/stderr only)
  -tz <zone>                time zone for "today" in analytics (default: Local)
  -transitions <rules>      status rules, e.g. new>preparing=kitchen|cashier;...
  -alert <duration>         how long a new-order alert stays raised (default: 3.5s)
  -h, -help                 show this help and exit

Environment:
  LUMIERE_DB, LUMIERE_ADDR, LUMIERE_LOG, LUMIERE_TZ, LUMIERE_TRANSITIONS,
  LUMIERE_ALERT                   defaults for the flags above
  LUMIERE_PIN_CASHIER, LUMIERE_PIN_KITCHEN, LUMIERE_PIN_ANALYTICS,
  LUMIERE_PIN_ADMIN               station PINs (defaults 1234, 5678, 9999, 0000)
  CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET,
  CLOUDINARY_UPLOAD_PRESET, CLOUDINARY_FOLDER
  LUMIERE_S3_BUCKET, LUMIERE_S3_REGION, LUMIERE_S3_ENDPOINT,
  LUMIERE_S3_ACCESS_KEY, LUMIERE_S3_SECRET_KEY, LUMIERE_S3_BASE_URL,
  LUMIERE_S3_PATH_STYLE           bucket used when Cloudinary is unavailable
  REDIS_URL, REDIS_CHANNEL        share live updates between instances
  CORS_ALLOW_ORIGINS              comma-separated allowed origins
`

// Load parses args. It returns flag.ErrHelp after printing usage to out
// when help was requested.
func Load(args []string, out io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("lumiere", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }

	var dbPath string
	fs.StringVar(&dbPath, "db", getEnvAsString("LUMIERE_DB", "lumiere.sqlite3"), "")
	fs.StringVar(&dbPath, "d", getEnvAsString("LUMIERE_DB", "lumiere.sqlite3"), "")

	var addr string
	fs.StringVar(&addr, "addr", getEnvAsString("LUMIERE_ADDR", ":8080"), "")
	fs.StringVar(&addr, "a", getEnvAsString("LUMIERE_ADDR", ":8080"), "")

	var logPath string
	fs.StringVar(&logPath, "log", getEnvAsString("LUMIERE_LOG", ""), "")
	fs.StringVar(&logPath, "l", getEnvAsString("LUMIERE_LOG", ""), "")

	tz := fs.String("tz", getEnvAsString("LUMIERE_TZ", "Local"), "")
	transitions := fs.String("transitions", getEnvAsString("LUMIERE_TRANSITIONS", ""), "")
	alertFor := fs.Duration("alert", getEnvAsDuration("LUMIERE_ALERT", live.DefaultAlertDuration), "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	loc, err := loadLocation(*tz)
	if err != nil {
		return nil, err
	}
	f, err := funnel.Parse(*transitions)
	if err != nil {
		return nil, fmt.Errorf("parsing transitions: %w", err)
	}
	if *alertFor <= 0 {
		return nil, fmt.Errorf("alert duration must be positive, got %s", *alertFor)
	}

	pins := make(map[model.Role]string)
	for _, role := range model.Roles {
		if pin := getEnvAsString("LUMIERE_PIN_"+strings.ToUpper(string(role)), ""); pin != "" {
			pins[role] = pin
		}
	}

	return &Config{
		DBPath:   dbPath,
		Addr:     addr,
		LogPath:  logPath,
		Location: loc,
		Funnel:   f,
		AlertFor: *alertFor,
		PINs:     pins,
		Cloudinary: Cloudinary{
			CloudName:    getEnvAsString("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnvAsString("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnvAsString("CLOUDINARY_API_SECRET", ""),
			UploadPreset: getEnvAsString("CLOUDINARY_UPLOAD_PRESET", ""),
			Folder:       getEnvAsString("CLOUDINARY_FOLDER", upload.DefaultFolder),
		},
		S3: upload.S3Config{
			Bucket:       getEnvAsString("LUMIERE_S3_BUCKET", ""),
			Region:       getEnvAsString("LUMIERE_S3_REGION", ""),
			Endpoint:     getEnvAsString("LUMIERE_S3_ENDPOINT", ""),
			AccessKey:    getEnvAsString("LUMIERE_S3_ACCESS_KEY", ""),
			SecretKey:    getEnvAsString("LUMIERE_S3_SECRET_KEY", ""),
			BaseURL:      getEnvAsString("LUMIERE_S3_BASE_URL", ""),
			UsePathStyle: getEnvAsBool("LUMIERE_S3_PATH_STYLE", false),
		},
		RedisURL:    getEnvAsString("REDIS_URL", ""),
		RedisChan:   getEnvAsString("REDIS_CHANNEL", live.DefaultRelayChannel),
		CORSOrigins: getEnvAsSlice("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}
