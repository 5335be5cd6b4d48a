/*
 * adiprobe - Configuration loader.
 *
 * Copyright 2026, adiprobe contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package config loads adiprobe's configuration file with viper, the way
// structured YAML configuration is handled elsewhere in this codebase.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/cornwell-labs/adiprobe/chipdb"
)

// Config is adiprobe's top-level configuration: logging/metrics
// destinations plus any user-supplied chip profiles to merge into the
// built-in chipdb.DB.
type Config struct {
	LogFile      string        `mapstructure:"log_file"`
	Debug        bool          `mapstructure:"debug"`
	MetricsAddr  string        `mapstructure:"metrics_addr"`
	DefaultChip  string        `mapstructure:"default_chip"`
	Chips        []chipProfile `mapstructure:"chips"`
}

type chipProfile struct {
	Name      string `mapstructure:"name"`
	JEP106CC  uint8  `mapstructure:"jep106_cc"`
	JEP106ID  uint8  `mapstructure:"jep106_id"`
	Part      uint16 `mapstructure:"part"`
	DebugBase uint32 `mapstructure:"debug_base"`
	NVMCBase  uint32 `mapstructure:"nvmc_base"`
	FlashBase uint32 `mapstructure:"flash_base"`
	PageSize  uint32 `mapstructure:"page_size"`
}

// Load reads path (YAML) into a Config. A missing file is not an error:
// Load returns the zero Config, treating "no config file" as "use
// defaults".
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyChips merges every chip profile from cfg into db.
func (c Config) ApplyChips(db *chipdb.DB) {
	for _, ch := range c.Chips {
		db.Add(chipdb.Profile{
			Name:      ch.Name,
			JEP106CC:  ch.JEP106CC,
			JEP106ID:  ch.JEP106ID,
			Part:      ch.Part,
			DebugBase: ch.DebugBase,
			NVMCBase:  ch.NVMCBase,
			FlashBase: ch.FlashBase,
			PageSize:  ch.PageSize,
		})
	}
}
