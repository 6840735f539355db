// Command token mints a signed access token for administrative tooling.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yigit/enrollment/internal/app/models"
	"github.com/yigit/enrollment/internal/bootstrap"
	"github.com/yigit/enrollment/internal/config"
	"github.com/yigit/enrollment/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", config.GetEnv("CONFIG_PATH", bootstrap.DefaultConfigPath), "path to the YAML config file")
	subject := flag.String("subject", "registrar", "operator the token is issued to")
	role := flag.String("role", string(models.RoleRegistrar), "token role (REGISTRAR or AUDITOR)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
		os.Exit(1)
	}

	token, expiresAt, err := bootstrap.NewJWTService(cfg).GenerateToken(*subject, models.RoleType(strings.ToUpper(*role)))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
