package config

import (
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DATEMARK"

type Config struct {
	// Input is the image path. Empty means the CLI prompts for it.
	Input string
	// Custom enables prompting for font size, color and position.
	Custom bool

	FontSize string
	Color    string
	Position string

	FontPath    string
	JPEGQuality int
	AutoOrient  bool
	LogLevel    string
}

// Load resolves the configuration from args, DATEMARK_* environment variables
// and an optional dotenv file, in that order of precedence. Usage and parse
// errors are written to out. It returns pflag.ErrHelp when help was requested.
func Load(args []string, out io.Writer) (*Config, error) {
	flags := pflag.NewFlagSet("datemark", pflag.ContinueOnError)
	flags.SetOutput(out)
	flags.StringP("in", "i", "", "image path (prompted for when empty)")
	flags.BoolP("custom", "c", false, "prompt for font size, color and position")
	flags.String("font-size", "", "font size in points (default 36)")
	flags.String("color", "", "text color as R,G,B,A (default 255,255,255,128)")
	flags.String("position", "", "baseline origin as x,y (default bottom-right)")
	flags.StringP("font", "f", "", "path to a .ttf/.otf/.ttc font")
	flags.IntP("jpeg-quality", "q", 90, "jpeg encode quality 1..100")
	flags.Bool("auto-orient", false, "apply EXIF orientation when decoding")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("env-file", ".env", "dotenv file to load if present")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := loadEnvFile(v.GetString("env-file")); err != nil {
		return nil, err
	}

	return &Config{
		Input:       v.GetString("in"),
		Custom:      v.GetBool("custom"),
		FontSize:    v.GetString("font-size"),
		Color:       v.GetString("color"),
		Position:    v.GetString("position"),
		FontPath:    v.GetString("font"),
		JPEGQuality: v.GetInt("jpeg-quality"),
		AutoOrient:  v.GetBool("auto-orient"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}

// loadEnvFile populates the process environment from path. Variables that are
// already set win; a missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
