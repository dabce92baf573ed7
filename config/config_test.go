package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "test-secret-key-for-unit-testing", AccessTokenTTL: time.Hour},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			Cron:         "5 0 * * 1",
			Timezone:     "Asia/Manila",
			DisplayWeeks: 20,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "合法配置", mutate: func(c *Config) {}},
		{name: "密钥过短", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: true},
		{name: "端口越界", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "时区无效", mutate: func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "展示周数为0", mutate: func(c *Config) { c.Scheduler.DisplayWeeks = 0 }, wantErr: true},
		{name: "启用但cron为空", mutate: func(c *Config) { c.Scheduler.Cron = " " }, wantErr: true},
		{name: "禁用时cron可为空", mutate: func(c *Config) {
			c.Scheduler.Enabled = false
			c.Scheduler.Cron = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("期望 wantErr=%v，实际 err=%v", tt.wantErr, err)
			}
		})
	}
}

func TestSchedulerConfig_Location(t *testing.T) {
	cfg := SchedulerConfig{Timezone: "Asia/Manila"}
	if got := cfg.Location().String(); got != "Asia/Manila" {
		t.Errorf("期望 Asia/Manila，实际=%s", got)
	}

	bad := SchedulerConfig{Timezone: "not-a-zone"}
	if bad.Location() != time.UTC {
		t.Error("无效时区应回退到 UTC")
	}
}

func TestDSN(t *testing.T) {
	c := &DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "ojt", SSLMode: "disable", Timezone: "UTC",
	}
	want := "host=db port=5432 user=u password=p dbname=ojt sslmode=disable TimeZone=UTC"
	if got := c.DSN(); got != want {
		t.Errorf("期望 %s，实际 %s", want, got)
	}
}
