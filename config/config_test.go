package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetString(ConfigSessionStore), "file")
	is.Equal(cfg.GetInt(ConfigRanks), 7)
	is.True(cfg.GetBool(ConfigBranching))
	is.Equal(cfg.GetString(ConfigCheckMode), "check")
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--branching=false", "--cells", "3", "deal", "4"}))
	is.True(!cfg.GetBool(ConfigBranching))
	is.Equal(cfg.GetInt(ConfigCells), 3)
	is.Equal(cfg.GetInt(ConfigColumns), 6)
	is.Equal(cfg.Args, []string{"deal", "4"})
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("BRAINJAM_GRAFT_POLICY", "graft")
	t.Setenv("BRAINJAM_CHECK_MODE", "later")
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetString(ConfigGraftPolicy), "graft")
	// Flags win over the environment.
	is.NoErr(cfg.Load([]string{"--check-mode", "none"}))
	is.Equal(cfg.GetString(ConfigCheckMode), "none")
}

func TestLoadFile(t *testing.T) {
	is := is.New(t)
	f := filepath.Join(t.TempDir(), "brainjam.yaml")
	is.NoErr(os.WriteFile(f, []byte("session-store: sqlite\nsuits: 2\n"), 0o644))
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file", f}))
	is.Equal(cfg.GetString(ConfigSessionStore), "sqlite")
	is.Equal(cfg.GetInt(ConfigSuits), 2)
	is.Equal(cfg.GetInt(ConfigRanks), 7)
}

func TestBadFlag(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.True(cfg.Load([]string{"--no-such-flag"}) != nil)
}

func TestWriteAndAdjust(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--data-path", "sessions"}))
	cfg.AdjustRelativePaths(dir)
	is.Equal(cfg.GetString(ConfigDataPath), filepath.Join(dir, "sessions"))

	is.NoErr(os.MkdirAll(cfg.GetString(ConfigDataPath), 0o755))
	cfg.Set(ConfigRanks, 5)
	is.NoErr(cfg.Write())
	_, err := os.Stat(filepath.Join(dir, "sessions", "brainjam.yaml"))
	is.NoErr(err)
}
