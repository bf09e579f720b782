package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/sdpublication/internal/config"
	"github.com/example/sdpublication/internal/database"
	"github.com/example/sdpublication/internal/routes"
	"github.com/example/sdpublication/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "sdpublication",
	Short: "SD Publication ebook store and mock test backend",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		database.Connect(cfg)
		log.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	db := database.Connect(cfg)

	rdb := database.NewRedis(cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	mailer := services.NewMailPublisher(cfg.AMQPURL, cfg.MailQueue)
	defer func() {
		if err := mailer.Close(); err != nil {
			log.Printf("mail publisher close error: %v", err)
		}
	}()

	app, err := routes.NewApp(db, cfg, rdb, mailer)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("fiber.Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		return fmt.Errorf("fiber.Listen: %w", err)
	}
	return nil
}
