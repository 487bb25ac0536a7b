package bootstrap

import (
	"fmt"

	"github.com/go-authgate/tokenstore/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
