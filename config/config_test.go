package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/byebyebruce/rollbacknet/logic/game"
	"github.com/byebyebruce/rollbacknet/pkg/fixed"
	"github.com/byebyebruce/rollbacknet/util"
)

func Test_DefaultMatchesSession(t *testing.T) {
	if Default().Session().Digest() != game.DefaultConfig().Digest() {
		t.Error("default file config and default session disagree")
	}
}

func Test_LoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "client.xml")
	xml := `<Config>
  <input_delay>3</input_delay>
  <move_speed>0.25</move_speed>
  <room>lobby</room>
</Config>`
	if err := os.WriteFile(file, []byte(xml), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadConfig(file); err != nil {
		t.Fatal(err)
	}

	if Cfg.InputDelay != 3 || Cfg.Room != "lobby" {
		t.Errorf("cfg = %+v", Cfg)
	}
	if Cfg.RollbackWindow != Default().RollbackWindow || Cfg.PlayerRadius != 0.5 {
		t.Errorf("defaults lost: %+v", Cfg)
	}
	s := Cfg.Session()
	if s.Sim.MoveSpeed != fixed.FromFloat(0.25) || s.InputDelay != 3 {
		t.Errorf("session = %+v", s)
	}
	if s.Digest() == game.DefaultConfig().Digest() {
		t.Error("digest ignores move speed")
	}
	Cfg = Default()
}

func Test_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "saved.xml")
	c := Default()
	c.Players = 3
	if err := util.SaveConfig(file, &c); err != nil {
		t.Fatal(err)
	}
	if err := LoadConfig(file); err != nil {
		t.Fatal(err)
	}
	if Cfg != c {
		t.Errorf("got %+v want %+v", Cfg, c)
	}
	Cfg = Default()
}
