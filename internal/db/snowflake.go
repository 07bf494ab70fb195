package db

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/subscribe/internal/config"
)

// NewSnowflakeNode builds the ID generator for the configured node.
func NewSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}
