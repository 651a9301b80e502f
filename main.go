package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tradesnap/pkg/ocr"
	"tradesnap/pkg/report"
)

var jwtSecret []byte

var (
	ocrEngine *ocr.Engine
	assembler *report.Assembler
)

var rootCmd = &cobra.Command{
	Use:   "tradesnap",
	Short: "Vehicle trade-in desk: plate scan, report resolution and bookings",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		jwtSecret = []byte(cfg.JWTSecret)
		initDB(cfg)

		engine, err := ocr.NewEngine(cfg.OCR)
		if err != nil {
			// No silent fallback between backends; refuse to start instead.
			log.Fatalf("ocr engine: %v (set ocr.backend to %q or %q)", err, ocr.BackendTesseract, ocr.BackendANPR)
		}
		ocrEngine = engine
		watchConfig(engine)
		assembler = report.NewAssembler()
		log.Printf("ocr backend: %s", engine.BackendName())

		r := newRouter()
		return r.Run(cfg.ServerAddr)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run schema migration and seeding, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		initDB(cfg)
		log.Println("migration and seeding completed")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
