package main

import (
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"tradesnap/pkg/ocr"
)

// Config is the resolved service configuration. Values come from config.yaml
// in the working directory, overridden by TRADESNAP_* environment variables
// (dots become underscores, e.g. TRADESNAP_OCR_BACKEND).
type Config struct {
	ServerAddr string
	DBDSN      string
	JWTSecret  string
	UploadBase string
	OCR        ocr.Config
}

func setConfigDefaults() {
	viper.SetDefault("server.addr", ":8081")
	viper.SetDefault("upload.base", "uploads")
	viper.SetDefault("jwt.secret", "dev-insecure-secret-change")
	viper.SetDefault("ocr.backend", "")
	viper.SetDefault("ocr.anpr_endpoint", "")
	viper.SetDefault("ocr.anpr_timeout", "10s")
	viper.SetDefault("ocr.min_confidence", 0.25)
	viper.SetDefault("ocr.target_width", 1000)
	viper.SetDefault("ocr.target_height", 320)
}

// loadConfig reads configuration once at startup. A missing config file is
// fine; env vars alone can run the service.
func loadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("tradesnap")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setConfigDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config read warning: %v", err)
		}
	}
	return configFromViper()
}

func configFromViper() *Config {
	prep := ocr.DefaultPreprocessOptions()
	prep.TargetWidth = viper.GetInt("ocr.target_width")
	prep.TargetHeight = viper.GetInt("ocr.target_height")
	timeout, err := time.ParseDuration(viper.GetString("ocr.anpr_timeout"))
	if err != nil {
		timeout = 10 * time.Second
	}
	return &Config{
		ServerAddr: viper.GetString("server.addr"),
		DBDSN:      viper.GetString("db.dsn"),
		JWTSecret:  viper.GetString("jwt.secret"),
		UploadBase: viper.GetString("upload.base"),
		OCR: ocr.Config{
			Backend:       viper.GetString("ocr.backend"),
			ANPREndpoint:  viper.GetString("ocr.anpr_endpoint"),
			ANPRTimeout:   timeout,
			MinConfidence: viper.GetFloat64("ocr.min_confidence"),
			Preprocess:    prep,
		},
	}
}

// watchConfig re-applies the tunable settings when config.yaml changes.
// Backend selection and DB settings stay fixed for the process lifetime.
func watchConfig(engine *ocr.Engine) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		min := viper.GetFloat64("ocr.min_confidence")
		engine.SetMinConfidence(min)
		log.Printf("config reloaded (%s): ocr.min_confidence=%v", e.Name, min)
	})
	viper.WatchConfig()
}
