/*
 * adiprobe - Configuration loader tests.
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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	CD "github.com/cornwell-labs/adiprobe/chipdb"
	C "github.com/cornwell-labs/adiprobe/config"
)

func TestLoadMissingFileReturnsZeroConfig(t *testing.T) {
	cfg, err := C.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogFile != "" || cfg.Debug || len(cfg.Chips) != 0 {
		t.Errorf("Load(missing) = %+v, want zero value", cfg)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adiprobe.yaml")
	yaml := `
log_file: /tmp/adiprobe.log
debug: true
metrics_addr: 127.0.0.1:9090
default_chip: nRF52832
chips:
  - name: custom-nrf
    jep106_cc: 2
    jep106_id: 68
    part: 7
    debug_base: 3759140864
    nvmc_base: 1073864704
    flash_base: 0
    page_size: 4096
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := C.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.MetricsAddr != "127.0.0.1:9090" {
		t.Errorf("MetricsAddr = %q, want 127.0.0.1:9090", cfg.MetricsAddr)
	}
	if len(cfg.Chips) != 1 || cfg.Chips[0].Name != "custom-nrf" {
		t.Fatalf("Chips = %+v, want one entry named custom-nrf", cfg.Chips)
	}
}

func TestApplyChipsMergesIntoDB(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adiprobe.yaml")
	yaml := `
chips:
  - name: custom-nrf
    part: 7
    page_size: 4096
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := C.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	db := CD.New()
	cfg.ApplyChips(db)

	p, ok := db.ByName("custom-nrf")
	if !ok {
		t.Fatal("ByName(custom-nrf) ok = false after ApplyChips")
	}
	if p.PageSize != 4096 {
		t.Errorf("PageSize = %d, want 4096", p.PageSize)
	}
}
