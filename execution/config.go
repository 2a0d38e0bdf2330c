package execution

import "github.com/BurntSushi/toml"

// ExecutionConfig is the execution core's own tunables. Gas scheduling is
// explicitly out of scope ("Non-goals"): the core does not define the
// metering policy. The Executor holds this config but reads none of its
// fields; the sandbox adapter takes its per-call gas limit at construction
// (see sandbox.NewLifeAdapter). Loaded from TOML via
// github.com/BurntSushi/toml.
type ExecutionConfig struct {
	GasLimitPerCall   uint64 `toml:"gas-limit-per-call" json:"gas_limit_per_call"`
	CacheCapacity     int    `toml:"cache-capacity" json:"cache_capacity"`
	TreeRetentionSize uint64 `toml:"tree-retention-size" json:"tree_retention_size"`
}

func DefaultExecutionConfig() *ExecutionConfig {
	return &ExecutionConfig{
		GasLimitPerCall:   10_000_000,
		CacheCapacity:     1024,
		TreeRetentionSize: 100,
	}
}

// LoadExecutionConfig decodes TOML-formatted data over DefaultExecutionConfig,
// so a partial config file only overrides the fields it sets.
func LoadExecutionConfig(data []byte) (*ExecutionConfig, error) {
	cfg := DefaultExecutionConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
